package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammedkisla/deryailetisim/internal/config"
	"github.com/muhammedkisla/deryailetisim/internal/models"
	"github.com/muhammedkisla/deryailetisim/internal/pricing"
)

type phoneSlice []models.Phone

func (s phoneSlice) Snapshot() []models.Phone { return s }

type campaignSlice []models.InstallmentCampaign

func (s campaignSlice) Snapshot() []models.InstallmentCampaign { return s }

func listPhone(id, brand, model string, cash int64) models.Phone {
	return models.Phone{
		ID:                id,
		Brand:             brand,
		Model:             model,
		Colors:            []string{"Siyah", "Okyanus"},
		CashPrice:         cash,
		SinglePaymentRate: decimal.RequireFromString("0.97"),
		InstallmentRate:   decimal.RequireFromString("0.93"),
		Stock:             true,
	}
}

func newPriceListService(t *testing.T) *PriceListService {
	t.Helper()
	calc, err := pricing.NewCalculator(pricing.Divisive)
	require.NoError(t, err)
	return NewPriceListService(calc, config.ShopConfig{
		BrandPriority: []string{"APPLE", "SAMSUNG", "XIAOMI"},
		BankAccounts:  []config.BankAccount{{BankName: "Kuveyt Türk", IBAN: "TR25 0020 5000 0962 1365 2000 01"}},
		AccountHolder: "DERYA İNOVASYON",
		ContactPhone:  "+90 (507) 263 82 82",
	})
}

func TestPriceList_GroupsByPriorityThenAlphabet(t *testing.T) {
	s := newPriceListService(t)
	phones := phoneSlice{
		listPhone("1", "ZTE", "Blade", 90000),
		listPhone("2", "XIAOMI", "14T", 80000),
		listPhone("3", "ÇAKIR", "One", 70000),
		listPhone("4", "APPLE", "iPhone 16", 60000),
		listPhone("5", "CASPER", "VIA", 50000),
		listPhone("6", "APPLE", "iPhone 15", 40000),
	}

	page := s.Build(phones, campaignSlice{}, "")

	var brands []string
	for _, g := range page.Groups {
		brands = append(brands, g.Brand)
	}
	assert.Equal(t, []string{"APPLE", "XIAOMI", "CASPER", "ÇAKIR", "ZTE"}, brands)
	require.Len(t, page.Groups[0].Phones, 2)
	assert.Equal(t, "iPhone 16", page.Groups[0].Phones[0].Model)
	assert.Equal(t, "iPhone 15", page.Groups[0].Phones[1].Model)
	assert.Equal(t, 6, page.Total)
}

func TestPriceList_SearchMatchesBrandOrModel(t *testing.T) {
	s := newPriceListService(t)
	phones := phoneSlice{
		listPhone("1", "APPLE", "iPhone 16", 60000),
		listPhone("2", "SAMSUNG", "Galaxy S24", 50000),
		listPhone("3", "XIAOMI", "Redmi Note", 10000),
	}

	page := s.Build(phones, campaignSlice{}, "  GALAXY ")
	assert.Equal(t, "GALAXY", page.Search)
	require.Len(t, page.Groups, 1)
	assert.Equal(t, "SAMSUNG", page.Groups[0].Brand)

	page = s.Build(phones, campaignSlice{}, "apple")
	require.Len(t, page.Groups, 1)
	assert.Equal(t, "iPhone 16", page.Groups[0].Phones[0].Model)

	page = s.Build(phones, campaignSlice{}, "nokia")
	assert.Empty(t, page.Groups)
	assert.NotNil(t, page.Groups)
	assert.Equal(t, 0, page.Total)
}

func TestPriceList_RowDerivesAndFormatsPrices(t *testing.T) {
	s := newPriceListService(t)
	p := listPhone("1", "APPLE", "iPhone 16", 65000)
	campaign := "Garanti 9 taksit, , Akbank 6 taksit"
	p.InstallmentCampaign = &campaign

	rows := s.Rows([]models.Phone{p}, "")
	require.Len(t, rows, 1)
	r := rows[0]

	require.NotNil(t, r.Prices)
	assert.Equal(t, pricing.Prices{Cash: 65000, SinglePayment: 67010, Installment: 69892}, *r.Prices)
	assert.Equal(t, "₺65.000", r.Formatted.Cash)
	assert.Equal(t, "₺67.010", r.Formatted.SinglePayment)
	assert.Equal(t, "₺69.892", r.Formatted.Installment)
	assert.Equal(t, []string{"Garanti 9 taksit", "Akbank 6 taksit"}, r.Campaigns)

	require.Len(t, r.Colors, 2)
	assert.Equal(t, "#000000", r.Colors[0].Bg)
	assert.Equal(t, "Okyanus", r.Colors[1].Name)
	assert.Equal(t, "#6B7280", r.Colors[1].Bg)
}

func TestPriceList_RatesOfTheOtherConventionHidePrices(t *testing.T) {
	s := newPriceListService(t)
	p := listPhone("1", "APPLE", "iPhone 16", 65000)
	p.SinglePaymentRate = decimal.RequireFromString("1.05")

	rows := s.Rows([]models.Phone{p}, "")
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Prices)
	assert.Nil(t, rows[0].Formatted)
	assert.Empty(t, rows[0].Campaigns)
}

func TestPriceList_ShopDetails(t *testing.T) {
	s := newPriceListService(t)
	campaigns := campaignSlice{{ID: "c1", BankName: "Garanti", InstallmentDescription: "9 taksit"}}

	page := s.Build(phoneSlice{}, campaigns, "")

	assert.Regexp(t, `^\d{2}\.\d{2}\.\d{4}$`, page.Date)
	assert.Equal(t, pricing.Divisive, page.Convention)
	assert.Len(t, page.Campaigns, 1)
	require.Len(t, page.BankAccounts, 1)
	assert.Equal(t, "TR25 0020 5000 0962 1365 2000 01", page.BankAccounts[0].IBAN)
	assert.Equal(t, "TR250020500009621365200001", page.BankAccounts[0].CopyValue)
	assert.Equal(t, "DERYA İNOVASYON", page.AccountHolder)
}

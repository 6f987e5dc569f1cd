package service

import (
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/muhammedkisla/deryailetisim/internal/config"
	"github.com/muhammedkisla/deryailetisim/internal/models"
	"github.com/muhammedkisla/deryailetisim/internal/pricing"
	"github.com/muhammedkisla/deryailetisim/internal/utils"
)

// PhoneSource yields the current phone list.
type PhoneSource interface {
	Snapshot() []models.Phone
}

// CampaignSource yields the current campaign list.
type CampaignSource interface {
	Snapshot() []models.InstallmentCampaign
}

// FormattedPrices are the display strings of the derived prices.
type FormattedPrices struct {
	Cash          string `json:"cash"`
	SinglePayment string `json:"singlePayment"`
	Installment   string `json:"installment"`
}

// PriceRow is one phone on the price list. Prices are omitted when the
// stored rates do not fit the active convention.
type PriceRow struct {
	ID        string           `json:"id"`
	Brand     string           `json:"brand"`
	Model     string           `json:"model"`
	Colors    []models.Color   `json:"colors"`
	ImageURL  *string          `json:"imageUrl,omitempty"`
	Stock     bool             `json:"stock"`
	Prices    *pricing.Prices  `json:"prices,omitempty"`
	Formatted *FormattedPrices `json:"formatted,omitempty"`
	Campaigns []string         `json:"campaigns"`
}

// BrandGroup holds the rows of one brand, in list order.
type BrandGroup struct {
	Brand  string     `json:"brand"`
	Phones []PriceRow `json:"phones"`
}

// BankAccountView is a payment account; CopyValue is the IBAN without
// spaces, for the clipboard.
type BankAccountView struct {
	BankName  string `json:"bankName"`
	IBAN      string `json:"iban"`
	CopyValue string `json:"copyValue"`
}

// PriceList is the public price list page.
type PriceList struct {
	Date          string                       `json:"date"`
	Convention    pricing.Convention           `json:"convention"`
	Search        string                       `json:"search,omitempty"`
	Total         int                          `json:"total"`
	Groups        []BrandGroup                 `json:"groups"`
	Campaigns     []models.InstallmentCampaign `json:"campaigns"`
	BankAccounts  []BankAccountView            `json:"bankAccounts"`
	AccountHolder string                       `json:"accountHolder"`
	ContactPhone  string                       `json:"contactPhone"`
}

// PriceListService renders live lists into price list pages.
type PriceListService struct {
	calc *pricing.Calculator
	shop config.ShopConfig
}

func NewPriceListService(calc *pricing.Calculator, shop config.ShopConfig) *PriceListService {
	return &PriceListService{calc: calc, shop: shop}
}

// Build renders the page for the given phones and campaigns, filtered by a
// case-insensitive search over brand and model.
func (s *PriceListService) Build(phones PhoneSource, campaigns CampaignSource, search string) *PriceList {
	search = strings.TrimSpace(search)
	rows := s.Rows(phones.Snapshot(), search)

	out := &PriceList{
		Date:          utils.NowTR().Format("02.01.2006"),
		Convention:    s.calc.Convention(),
		Search:        search,
		Total:         len(rows),
		Groups:        s.Group(rows),
		Campaigns:     campaigns.Snapshot(),
		BankAccounts:  make([]BankAccountView, 0, len(s.shop.BankAccounts)),
		AccountHolder: s.shop.AccountHolder,
		ContactPhone:  s.shop.ContactPhone,
	}
	for _, acc := range s.shop.BankAccounts {
		out.BankAccounts = append(out.BankAccounts, BankAccountView{
			BankName:  acc.BankName,
			IBAN:      acc.IBAN,
			CopyValue: strings.Join(strings.Fields(acc.IBAN), ""),
		})
	}
	return out
}

// Rows converts phones to display rows, keeping their order and dropping
// those that do not match search.
func (s *PriceListService) Rows(phones []models.Phone, search string) []PriceRow {
	matched := FilterPhones(phones, search)
	rows := make([]PriceRow, 0, len(matched))
	for _, p := range matched {
		rows = append(rows, s.Row(p))
	}
	return rows
}

// FilterPhones keeps the phones whose brand or model contains search,
// ignoring case. A blank search keeps everything.
func FilterPhones(phones []models.Phone, search string) []models.Phone {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(search))
	if needle == "" {
		return phones
	}

	out := make([]models.Phone, 0, len(phones))
	for _, p := range phones {
		if strings.Contains(fold.String(p.Brand), needle) || strings.Contains(fold.String(p.Model), needle) {
			out = append(out, p)
		}
	}
	return out
}

// Group buckets rows by brand. Brands on the priority list come first in
// list order, the rest follow in Turkish alphabetical order.
func (s *PriceListService) Group(rows []PriceRow) []BrandGroup {
	index := make(map[string]int)
	var groups []BrandGroup
	for _, r := range rows {
		i, ok := index[r.Brand]
		if !ok {
			i = len(groups)
			index[r.Brand] = i
			groups = append(groups, BrandGroup{Brand: r.Brand})
		}
		groups[i].Phones = append(groups[i].Phones, r)
	}

	cmp := s.BrandOrder()
	slices.SortStableFunc(groups, func(a, b BrandGroup) int { return cmp(a.Brand, b.Brand) })
	if groups == nil {
		groups = []BrandGroup{}
	}
	return groups
}

// BrandOrder returns the brand comparison used for grouping: priority list
// first, then Turkish alphabetical order. The returned func is not safe for
// concurrent use.
func (s *PriceListService) BrandOrder() func(a, b string) int {
	coll := collate.New(language.Turkish)
	return func(a, b string) int {
		pa, pb := s.priority(a), s.priority(b)
		if pa != pb {
			return pa - pb
		}
		return coll.CompareString(a, b)
	}
}

func (s *PriceListService) priority(brand string) int {
	for i, p := range s.shop.BrandPriority {
		if strings.EqualFold(p, brand) {
			return i
		}
	}
	return len(s.shop.BrandPriority)
}

// Row renders a single phone.
func (s *PriceListService) Row(p models.Phone) PriceRow {
	r := PriceRow{
		ID:        p.ID,
		Brand:     p.Brand,
		Model:     p.Model,
		Colors:    make([]models.Color, 0, len(p.Colors)),
		ImageURL:  p.ImageURL,
		Stock:     p.Stock,
		Campaigns: p.CampaignFragments(),
	}
	if r.Campaigns == nil {
		r.Campaigns = []string{}
	}
	for _, name := range p.Colors {
		r.Colors = append(r.Colors, models.LookupColor(name))
	}

	prices, err := s.calc.Derive(p.CashPrice, p.SinglePaymentRate, p.InstallmentRate)
	if err != nil {
		log.Warn().Err(err).Str("phone_id", p.ID).Msg("Stored rates do not fit the pricing convention")
		return r
	}
	r.Prices = &prices
	r.Formatted = &FormattedPrices{
		Cash:          pricing.FormatTRY(prices.Cash),
		SinglePayment: pricing.FormatTRY(prices.SinglePayment),
		Installment:   pricing.FormatTRY(prices.Installment),
	}
	return r
}

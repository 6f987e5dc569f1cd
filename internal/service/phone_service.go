package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/muhammedkisla/deryailetisim/internal/models"
	"github.com/muhammedkisla/deryailetisim/internal/pricing"
	"github.com/muhammedkisla/deryailetisim/internal/repository"
	"github.com/muhammedkisla/deryailetisim/internal/utils"
	"github.com/muhammedkisla/deryailetisim/internal/view"
)

// PhoneStore is the storage the phone service writes through.
type PhoneStore interface {
	GetByID(ctx context.Context, id string) (*models.Phone, error)
	Insert(ctx context.Context, p *models.Phone) error
	Update(ctx context.Context, id string, patch models.PhonePatch) (*models.Phone, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// FormValue is a form field that clients send either as a JSON number or as
// the text the form shows ("65.000", "0,97").
type FormValue string

func (v *FormValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected number or string: %w", err)
	}
	*v = FormValue(n.String())
	return nil
}

// PhoneInput is the admin create/update payload. On update, absent fields
// are left unchanged.
type PhoneInput struct {
	Brand               *string    `json:"brand"`
	Model               *string    `json:"model"`
	Colors              []string   `json:"colors"`
	CashPrice           *FormValue `json:"cashPrice"`
	SinglePaymentRate   *FormValue `json:"singlePaymentRate"`
	InstallmentRate     *FormValue `json:"installmentRate"`
	InstallmentCampaign *string    `json:"installmentCampaign"`
	ImageURL            *string    `json:"imageUrl"`
	Stock               *bool      `json:"stock"`
}

// PhoneService validates and persists phones. Every check runs before the
// repository is called, so an invalid phone never reaches storage.
type PhoneService struct {
	repo        PhoneStore
	calc        *pricing.Calculator
	defaultRate struct{ single, installment decimal.Decimal }
}

// NewPhoneService constructs a PhoneService. Non-empty default rates
// override the convention's built-in form defaults.
func NewPhoneService(repo PhoneStore, calc *pricing.Calculator, defaultSingle, defaultInstallment string) (*PhoneService, error) {
	s := &PhoneService{repo: repo, calc: calc}
	var err error
	s.defaultRate.single, s.defaultRate.installment, err = DefaultRates(calc, defaultSingle, defaultInstallment)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// DefaultRates resolves the admin form's default rates: the configured
// values when set, the convention's built-in defaults otherwise. Both must
// fit the convention.
func DefaultRates(calc *pricing.Calculator, single, installment string) (decimal.Decimal, decimal.Decimal, error) {
	s, i := calc.DefaultRates()
	if single != "" {
		r, err := pricing.ParseRate(single)
		if err != nil {
			return s, i, fmt.Errorf("default single payment rate: %w", err)
		}
		s = r
	}
	if installment != "" {
		r, err := pricing.ParseRate(installment)
		if err != nil {
			return s, i, fmt.Errorf("default installment rate: %w", err)
		}
		i = r
	}
	if err := calc.Validate(0, s, i); err != nil {
		return s, i, fmt.Errorf("default rates do not fit the %s convention: %w", calc.Convention(), err)
	}
	return s, i, nil
}

// Calculator returns the pricing calculator in use.
func (s *PhoneService) Calculator() *pricing.Calculator { return s.calc }

// Create validates in and stores a new phone. Missing rates take the form
// defaults and stock defaults to true.
func (s *PhoneService) Create(ctx context.Context, in *PhoneInput) (*models.Phone, error) {
	p := &models.Phone{
		SinglePaymentRate: s.defaultRate.single,
		InstallmentRate:   s.defaultRate.installment,
		Stock:             true,
	}

	if in.Brand == nil || normalizeBrand(*in.Brand) == "" {
		return nil, utils.ErrBrandRequired
	}
	p.Brand = normalizeBrand(*in.Brand)

	if in.Model == nil || strings.TrimSpace(*in.Model) == "" {
		return nil, utils.ErrModelRequired
	}
	p.Model = strings.TrimSpace(*in.Model)

	colors := normalizeColors(in.Colors)
	if len(colors) == 0 {
		return nil, utils.ErrColorsRequired
	}
	p.Colors = colors

	if in.CashPrice == nil {
		return nil, fmt.Errorf("%w: cash price is required", utils.ErrInvalidPrice)
	}
	cash, err := parseCash(*in.CashPrice)
	if err != nil {
		return nil, err
	}
	p.CashPrice = cash

	if in.SinglePaymentRate != nil {
		if p.SinglePaymentRate, err = s.parseRate(*in.SinglePaymentRate, "single payment rate"); err != nil {
			return nil, err
		}
	}
	if in.InstallmentRate != nil {
		if p.InstallmentRate, err = s.parseRate(*in.InstallmentRate, "installment rate"); err != nil {
			return nil, err
		}
	}
	p.InstallmentCampaign = trimmedOrNil(in.InstallmentCampaign)
	p.ImageURL = trimmedOrNil(in.ImageURL)
	if in.Stock != nil {
		p.Stock = *in.Stock
	}

	if err := s.repo.Insert(ctx, p); err != nil {
		log.Error().Err(err).Str("brand", p.Brand).Str("model", p.Model).Msg("Failed to insert phone")
		return nil, err
	}
	log.Info().Str("phone_id", p.ID).Str("brand", p.Brand).Str("model", p.Model).Msg("Phone created")
	return p, nil
}

// Update validates the present fields of in and applies them to phone id.
func (s *PhoneService) Update(ctx context.Context, id string, in *PhoneInput) (*models.Phone, error) {
	patch, err := s.buildPatch(in)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, utils.ErrPhoneNotFound
		}
		log.Error().Err(err).Str("phone_id", id).Msg("Failed to update phone")
		return nil, err
	}
	log.Info().Str("phone_id", id).Msg("Phone updated")
	return p, nil
}

// Delete removes phone id.
func (s *PhoneService) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("phone_id", id).Msg("Failed to delete phone")
		return err
	}
	if !ok {
		return utils.ErrPhoneNotFound
	}
	log.Info().Str("phone_id", id).Msg("Phone deleted")
	return nil
}

// Get returns phone id from storage.
func (s *PhoneService) Get(ctx context.Context, id string) (*models.Phone, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, utils.ErrPhoneNotFound
		}
		return nil, err
	}
	return p, nil
}

// EmptyForm is the admin form with nothing loaded: blank fields, default
// rates, in stock.
func (s *PhoneService) EmptyForm() view.PhoneForm {
	return view.PhoneForm{
		Colors:            []string{},
		SinglePaymentRate: s.defaultRate.single.String(),
		InstallmentRate:   s.defaultRate.installment.String(),
		Stock:             true,
	}
}

// FormFor fills the admin form from a stored phone.
func (s *PhoneService) FormFor(p models.Phone) view.PhoneForm {
	form := view.PhoneForm{
		Brand:             p.Brand,
		Model:             p.Model,
		Colors:            append([]string{}, p.Colors...),
		CashPrice:         pricing.FormatThousands(fmt.Sprint(p.CashPrice)),
		SinglePaymentRate: p.SinglePaymentRate.String(),
		InstallmentRate:   p.InstallmentRate.String(),
		Stock:             p.Stock,
	}
	if p.InstallmentCampaign != nil {
		form.InstallmentCampaign = *p.InstallmentCampaign
	}
	if p.ImageURL != nil {
		form.ImageURL = *p.ImageURL
	}
	return form
}

func (s *PhoneService) buildPatch(in *PhoneInput) (models.PhonePatch, error) {
	var patch models.PhonePatch

	if in.Brand != nil {
		brand := normalizeBrand(*in.Brand)
		if brand == "" {
			return patch, utils.ErrBrandRequired
		}
		patch.Brand = &brand
	}
	if in.Model != nil {
		model := strings.TrimSpace(*in.Model)
		if model == "" {
			return patch, utils.ErrModelRequired
		}
		patch.Model = &model
	}
	if in.Colors != nil {
		colors := normalizeColors(in.Colors)
		if len(colors) == 0 {
			return patch, utils.ErrColorsRequired
		}
		patch.Colors = colors
	}
	if in.CashPrice != nil {
		cash, err := parseCash(*in.CashPrice)
		if err != nil {
			return patch, err
		}
		patch.CashPrice = &cash
	}
	if in.SinglePaymentRate != nil {
		r, err := s.parseRate(*in.SinglePaymentRate, "single payment rate")
		if err != nil {
			return patch, err
		}
		patch.SinglePaymentRate = &r
	}
	if in.InstallmentRate != nil {
		r, err := s.parseRate(*in.InstallmentRate, "installment rate")
		if err != nil {
			return patch, err
		}
		patch.InstallmentRate = &r
	}
	if in.InstallmentCampaign != nil {
		v := strings.TrimSpace(*in.InstallmentCampaign)
		patch.InstallmentCampaign = &v
	}
	if in.ImageURL != nil {
		v := strings.TrimSpace(*in.ImageURL)
		patch.ImageURL = &v
	}
	patch.Stock = in.Stock
	return patch, nil
}

func (s *PhoneService) parseRate(v FormValue, field string) (decimal.Decimal, error) {
	r, err := pricing.ParseRate(string(v))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", utils.ErrInvalidRate, field, err)
	}
	if err := s.calc.ValidateRate(r); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", utils.ErrInvalidRate, field, err)
	}
	return r, nil
}

func parseCash(v FormValue) (int64, error) {
	cash, err := pricing.ParseCash(string(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", utils.ErrInvalidPrice, err)
	}
	return cash, nil
}

// normalizeBrand trims and upper-cases the brand. The casing is the plain
// Unicode mapping so "Xiaomi" becomes "XIAOMI", matching the priority list.
func normalizeBrand(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// normalizeColors trims names, drops blanks and duplicates, keeps order.
func normalizeColors(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

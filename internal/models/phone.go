package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Phone is an inventory item on the price list.
// Fields are tagged for both DB scanning and JSON serialization.
type Phone struct {
	ID                  string          `db:"id" json:"id"`
	Brand               string          `db:"brand" json:"brand"`
	Model               string          `db:"model" json:"model"`
	Colors              pq.StringArray  `db:"colors" json:"colors"`
	CashPrice           int64           `db:"cash_price" json:"cashPrice"`
	SinglePaymentRate   decimal.Decimal `db:"single_payment_rate" json:"singlePaymentRate"`
	InstallmentRate     decimal.Decimal `db:"installment_rate" json:"installmentRate"`
	InstallmentCampaign *string         `db:"installment_campaign" json:"installmentCampaign,omitempty"`
	ImageURL            *string         `db:"image_url" json:"imageUrl,omitempty"`
	Stock               bool            `db:"stock" json:"stock"`
	CreatedAt           time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updatedAt"`
}

// CampaignFragments splits the installment campaign text on commas for
// display. Blank fragments are dropped.
func (p *Phone) CampaignFragments() []string {
	if p.InstallmentCampaign == nil {
		return nil
	}
	var out []string
	for _, f := range strings.Split(*p.InstallmentCampaign, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// PhoneID returns the reconciliation key of a phone.
func PhoneID(p Phone) string { return p.ID }

// ByCashPriceDesc orders phones by cash price, most expensive first.
func ByCashPriceDesc(a, b Phone) bool { return a.CashPrice > b.CashPrice }

// InStock is the public list visibility predicate.
func InStock(p Phone) bool { return p.Stock }

// PhoneFilter narrows a phone listing.
type PhoneFilter struct {
	Stock *bool
}

// PhonePatch carries a partial phone update; nil fields are left unchanged.
type PhonePatch struct {
	Brand               *string
	Model               *string
	Colors              []string
	CashPrice           *int64
	SinglePaymentRate   *decimal.Decimal
	InstallmentRate     *decimal.Decimal
	InstallmentCampaign *string
	ImageURL            *string
	Stock               *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p *PhonePatch) IsEmpty() bool {
	return p.Brand == nil && p.Model == nil && p.Colors == nil && p.CashPrice == nil &&
		p.SinglePaymentRate == nil && p.InstallmentRate == nil &&
		p.InstallmentCampaign == nil && p.ImageURL == nil && p.Stock == nil
}

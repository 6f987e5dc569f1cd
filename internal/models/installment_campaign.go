package models

import "time"

// InstallmentCampaign is a bank row in the installment information table.
// It has no relationship to phones.
type InstallmentCampaign struct {
	ID                     string    `db:"id" json:"id"`
	BankName               string    `db:"bank_name" json:"bank_name"`
	InstallmentDescription string    `db:"installment_description" json:"installment_description"`
	CreatedAt              time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt              time.Time `db:"updated_at" json:"updatedAt"`
}

// CampaignID returns the reconciliation key of a campaign.
func CampaignID(c InstallmentCampaign) string { return c.ID }

// ByCreatedAt orders campaigns oldest first.
func ByCreatedAt(a, b InstallmentCampaign) bool { return a.CreatedAt.Before(b.CreatedAt) }

package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/muhammedkisla/deryailetisim/internal/models"
)

// CampaignRepository provides data access methods for installment_campaigns.
type CampaignRepository struct {
	db *sqlx.DB
}

func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) List(ctx context.Context) ([]models.InstallmentCampaign, error) {
	campaigns := []models.InstallmentCampaign{}
	err := r.db.SelectContext(ctx, &campaigns, `
		SELECT id, bank_name, installment_description, created_at, updated_at
		FROM installment_campaigns
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (r *CampaignRepository) Insert(ctx context.Context, c *models.InstallmentCampaign) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO installment_campaigns (bank_name, installment_description)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, c.BankName, c.InstallmentDescription).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// Update overwrites both text columns. It returns sql.ErrNoRows when the
// campaign does not exist.
func (r *CampaignRepository) Update(ctx context.Context, c *models.InstallmentCampaign) error {
	return r.db.QueryRowContext(ctx, `
		UPDATE installment_campaigns
		SET bank_name = $1, installment_description = $2
		WHERE id = $3
		RETURNING created_at, updated_at
	`, c.BankName, c.InstallmentDescription, c.ID).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *CampaignRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM installment_campaigns WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/muhammedkisla/deryailetisim/internal/models"
)

const phoneColumns = `id, brand, model, colors, cash_price, single_payment_rate, installment_rate,
	installment_campaign, image_url, stock, created_at, updated_at`

// PhoneRepository provides data access methods for the phones table.
type PhoneRepository struct {
	db *sqlx.DB
}

// NewPhoneRepository creates a new PhoneRepository.
func NewPhoneRepository(db *sqlx.DB) *PhoneRepository {
	return &PhoneRepository{db: db}
}

// List returns phones ordered by cash price, most expensive first.
func (r *PhoneRepository) List(ctx context.Context, filter models.PhoneFilter) ([]models.Phone, error) {
	query := `SELECT ` + phoneColumns + ` FROM phones`
	var args []any
	if filter.Stock != nil {
		query += ` WHERE stock = $1`
		args = append(args, *filter.Stock)
	}
	query += ` ORDER BY cash_price DESC, created_at ASC`

	phones := []models.Phone{}
	if err := r.db.SelectContext(ctx, &phones, query, args...); err != nil {
		return nil, err
	}
	return phones, nil
}

// GetByID returns sql.ErrNoRows when the phone does not exist.
func (r *PhoneRepository) GetByID(ctx context.Context, id string) (*models.Phone, error) {
	var p models.Phone
	err := r.db.GetContext(ctx, &p, `SELECT `+phoneColumns+` FROM phones WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Insert stores p and fills in its generated id and timestamps.
func (r *PhoneRepository) Insert(ctx context.Context, p *models.Phone) error {
	query := `
		INSERT INTO phones (brand, model, colors, cash_price, single_payment_rate, installment_rate,
			installment_campaign, image_url, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		p.Brand, p.Model, pq.Array([]string(p.Colors)), p.CashPrice, p.SinglePaymentRate, p.InstallmentRate,
		p.InstallmentCampaign, p.ImageURL, p.Stock,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// Update applies the non-nil fields of patch and returns the stored row.
// It returns sql.ErrNoRows when the phone does not exist.
func (r *PhoneRepository) Update(ctx context.Context, id string, patch models.PhonePatch) (*models.Phone, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	var sets []string
	var args []any
	argIdx := 1
	set := func(column string, v any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, v)
		argIdx++
	}

	if patch.Brand != nil {
		set("brand", *patch.Brand)
	}
	if patch.Model != nil {
		set("model", *patch.Model)
	}
	if patch.Colors != nil {
		set("colors", pq.Array(patch.Colors))
	}
	if patch.CashPrice != nil {
		set("cash_price", *patch.CashPrice)
	}
	if patch.SinglePaymentRate != nil {
		set("single_payment_rate", *patch.SinglePaymentRate)
	}
	if patch.InstallmentRate != nil {
		set("installment_rate", *patch.InstallmentRate)
	}
	if patch.InstallmentCampaign != nil {
		set("installment_campaign", nullIfEmpty(*patch.InstallmentCampaign))
	}
	if patch.ImageURL != nil {
		set("image_url", nullIfEmpty(*patch.ImageURL))
	}
	if patch.Stock != nil {
		set("stock", *patch.Stock)
	}

	query := fmt.Sprintf(`UPDATE phones SET %s WHERE id = $%d RETURNING `+phoneColumns,
		strings.Join(sets, ", "), argIdx)
	args = append(args, id)

	var p models.Phone
	if err := r.db.GetContext(ctx, &p, query, args...); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes the phone and reports whether a row was deleted.
func (r *PhoneRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM phones WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Exists reports whether the phones table has any row.
func (r *PhoneRepository) Exists(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM phones LIMIT 1)`)
	return exists, err
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

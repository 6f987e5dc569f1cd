package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/muhammedkisla/deryailetisim/internal/models"
)

// record is a decoded row. Numbers stay json.Number so every numeric field
// goes through an explicit coercion below; the wire may carry them as JSON
// numbers or as strings.
type record map[string]any

func decodeRecord(raw json.RawMessage) (record, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fmt.Errorf("%w: missing record", ErrMalformedChangeEvent)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var rec record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedChangeEvent, err)
	}
	return rec, nil
}

// MapPhone converts a notification on the phones table.
func MapPhone(raw RawChange) (Change[models.Phone], error) {
	kind, err := raw.Kind()
	if err != nil {
		return Change[models.Phone]{}, err
	}
	if kind == KindDelete {
		id, err := deletedID(raw)
		return Change[models.Phone]{Kind: kind, ID: id}, err
	}

	rec, err := decodeRecord(raw.Record)
	if err != nil {
		return Change[models.Phone]{}, err
	}
	p, err := phoneFromRecord(rec)
	if err != nil {
		return Change[models.Phone]{}, err
	}
	return Change[models.Phone]{Kind: kind, ID: p.ID, Item: p}, nil
}

// MapCampaign converts a notification on the installment_campaigns table.
func MapCampaign(raw RawChange) (Change[models.InstallmentCampaign], error) {
	kind, err := raw.Kind()
	if err != nil {
		return Change[models.InstallmentCampaign]{}, err
	}
	if kind == KindDelete {
		id, err := deletedID(raw)
		return Change[models.InstallmentCampaign]{Kind: kind, ID: id}, err
	}

	rec, err := decodeRecord(raw.Record)
	if err != nil {
		return Change[models.InstallmentCampaign]{}, err
	}
	var c models.InstallmentCampaign
	if c.ID, err = rec.requireString("id"); err != nil {
		return Change[models.InstallmentCampaign]{}, err
	}
	if c.BankName, err = rec.requireString("bank_name"); err != nil {
		return Change[models.InstallmentCampaign]{}, err
	}
	if c.InstallmentDescription, err = rec.requireString("installment_description"); err != nil {
		return Change[models.InstallmentCampaign]{}, err
	}
	if c.CreatedAt, err = rec.optionalTime("created_at"); err != nil {
		return Change[models.InstallmentCampaign]{}, err
	}
	if c.UpdatedAt, err = rec.optionalTime("updated_at"); err != nil {
		return Change[models.InstallmentCampaign]{}, err
	}
	return Change[models.InstallmentCampaign]{Kind: kind, ID: c.ID, Item: c}, nil
}

func deletedID(raw RawChange) (string, error) {
	rec, err := decodeRecord(raw.OldRecord)
	if err != nil {
		return "", err
	}
	return rec.requireString("id")
}

func phoneFromRecord(rec record) (models.Phone, error) {
	var (
		p   models.Phone
		err error
	)
	if p.ID, err = rec.requireString("id"); err != nil {
		return p, err
	}
	if p.Brand, err = rec.requireString("brand"); err != nil {
		return p, err
	}
	if p.Model, err = rec.requireString("model"); err != nil {
		return p, err
	}
	if p.Colors, err = rec.requireStrings("colors"); err != nil {
		return p, err
	}
	if len(p.Colors) == 0 {
		return p, fmt.Errorf("%w: colors is empty", ErrMalformedChangeEvent)
	}
	if p.CashPrice, err = rec.requireInt64("cash_price"); err != nil {
		return p, err
	}
	if p.SinglePaymentRate, err = rec.requireDecimal("single_payment_rate"); err != nil {
		return p, err
	}
	if p.InstallmentRate, err = rec.requireDecimal("installment_rate"); err != nil {
		return p, err
	}
	if p.Stock, err = rec.requireBool("stock"); err != nil {
		return p, err
	}
	if p.InstallmentCampaign, err = rec.optionalString("installment_campaign"); err != nil {
		return p, err
	}
	if p.ImageURL, err = rec.optionalString("image_url"); err != nil {
		return p, err
	}
	if p.CreatedAt, err = rec.optionalTime("created_at"); err != nil {
		return p, err
	}
	if p.UpdatedAt, err = rec.optionalTime("updated_at"); err != nil {
		return p, err
	}
	return p, nil
}

func (r record) value(field string) (any, error) {
	v, ok := r[field]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: %s is required", ErrMalformedChangeEvent, field)
	}
	return v, nil
}

func (r record) requireString(field string) (string, error) {
	v, err := r.value(field)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return "", fmt.Errorf("%w: %s is empty", ErrMalformedChangeEvent, field)
		}
		return t, nil
	case json.Number:
		return t.String(), nil
	default:
		return "", fmt.Errorf("%w: %s has type %T", ErrMalformedChangeEvent, field, v)
	}
}

func (r record) optionalString(field string) (*string, error) {
	v, ok := r[field]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s has type %T", ErrMalformedChangeEvent, field, v)
	}
	return &s, nil
}

func (r record) requireDecimal(field string) (decimal.Decimal, error) {
	v, err := r.value(field)
	if err != nil {
		return decimal.Zero, err
	}
	var text string
	switch t := v.(type) {
	case json.Number:
		text = t.String()
	case string:
		text = strings.TrimSpace(t)
	default:
		return decimal.Zero, fmt.Errorf("%w: %s has type %T", ErrMalformedChangeEvent, field, v)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s=%q is not numeric", ErrMalformedChangeEvent, field, text)
	}
	return d, nil
}

func (r record) requireInt64(field string) (int64, error) {
	d, err := r.requireDecimal(field)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%w: %s=%s is not a whole amount", ErrMalformedChangeEvent, field, d)
	}
	return d.IntPart(), nil
}

func (r record) requireBool(field string) (bool, error) {
	v, err := r.value(field)
	if err != nil {
		return false, err
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "t":
			return true, nil
		case "f":
			return false, nil
		}
		b, err := strconv.ParseBool(t)
		if err != nil {
			return false, fmt.Errorf("%w: %s=%q is not a boolean", ErrMalformedChangeEvent, field, t)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: %s has type %T", ErrMalformedChangeEvent, field, v)
	}
}

// requireStrings accepts a JSON array or a Postgres array literal ("{a,b}").
func (r record) requireStrings(field string) ([]string, error) {
	v, err := r.value(field)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s contains %T", ErrMalformedChangeEvent, field, item)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		var arr pq.StringArray
		if err := arr.Scan([]byte(t)); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedChangeEvent, field, err)
		}
		return []string(arr), nil
	default:
		return nil, fmt.Errorf("%w: %s has type %T", ErrMalformedChangeEvent, field, v)
	}
}

func (r record) optionalTime(field string) (time.Time, error) {
	v, ok := r[field]
	if !ok || v == nil {
		return time.Time{}, nil
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s has type %T", ErrMalformedChangeEvent, field, v)
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05.999999-07"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s=%q is not a timestamp", ErrMalformedChangeEvent, field, s)
}

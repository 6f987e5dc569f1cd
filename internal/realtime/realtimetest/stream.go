// Package realtimetest provides an in-memory change stream for tests.
package realtimetest

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/muhammedkisla/deryailetisim/internal/models"
	"github.com/muhammedkisla/deryailetisim/internal/realtime"
)

// Stream is a realtime.Stream fed by the test.
type Stream struct {
	changes chan realtime.RawChange
	resyncs chan struct{}
	once    sync.Once
}

func NewStream() *Stream {
	return &Stream{
		changes: make(chan realtime.RawChange, 64),
		resyncs: make(chan struct{}, 1),
	}
}

func (s *Stream) Changes() <-chan realtime.RawChange { return s.changes }
func (s *Stream) Resyncs() <-chan struct{}           { return s.resyncs }

func (s *Stream) Close() error {
	s.once.Do(func() { close(s.changes) })
	return nil
}

// Publish queues a change.
func (s *Stream) Publish(c realtime.RawChange) {
	s.changes <- c
}

// Resync signals a reconnect.
func (s *Stream) Resync() {
	select {
	case s.resyncs <- struct{}{}:
	default:
	}
}

// Insert builds an insert notification for table carrying row.
func Insert(table string, row any) realtime.RawChange {
	return realtime.RawChange{Table: table, Type: "INSERT", Record: mustJSON(row), ReceivedAt: time.Now()}
}

// Update builds an update notification for table carrying row.
func Update(table string, row any) realtime.RawChange {
	return realtime.RawChange{Table: table, Type: "UPDATE", Record: mustJSON(row), ReceivedAt: time.Now()}
}

// Delete builds a delete notification carrying only the id.
func Delete(table, id string) realtime.RawChange {
	return realtime.RawChange{Table: table, Type: "DELETE", OldRecord: mustJSON(map[string]string{"id": id}), ReceivedAt: time.Now()}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// PhoneRow renders p the way the change trigger serializes a phones row.
func PhoneRow(p models.Phone) map[string]any {
	return map[string]any{
		"id":                   p.ID,
		"brand":                p.Brand,
		"model":                p.Model,
		"colors":               []string(p.Colors),
		"cash_price":           p.CashPrice,
		"single_payment_rate":  p.SinglePaymentRate.String(),
		"installment_rate":     p.InstallmentRate.String(),
		"installment_campaign": p.InstallmentCampaign,
		"image_url":            p.ImageURL,
		"stock":                p.Stock,
		"created_at":           p.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":           p.UpdatedAt.Format(time.RFC3339Nano),
	}
}

// CampaignRow renders c the way the change trigger serializes a campaign row.
func CampaignRow(c models.InstallmentCampaign) map[string]any {
	return map[string]any{
		"id":                      c.ID,
		"bank_name":               c.BankName,
		"installment_description": c.InstallmentDescription,
		"created_at":              c.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":              c.UpdatedAt.Format(time.RFC3339Nano),
	}
}

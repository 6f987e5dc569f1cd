// Package realtime carries row change notifications from Postgres to the
// in-process live views.
package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind is the operation a change notification describes.
type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Tables and the notification channels their triggers publish on.
const (
	TablePhones    = "phones"
	TableCampaigns = "installment_campaigns"
)

// ChannelFor returns the NOTIFY channel used by the trigger on table.
func ChannelFor(table string) string {
	return table + "_changes"
}

var ErrMalformedChangeEvent = errors.New("MALFORMED_CHANGE_EVENT")

// RawChange is a notification as published by the change trigger. Record is
// the new row for insert/update; OldRecord carries at least the id for
// update/delete.
type RawChange struct {
	Table      string          `json:"table"`
	Type       string          `json:"type"`
	Record     json.RawMessage `json:"record,omitempty"`
	OldRecord  json.RawMessage `json:"old_record,omitempty"`
	ReceivedAt time.Time       `json:"-"`
}

// Kind normalizes the trigger operation name.
func (c RawChange) Kind() (Kind, error) {
	switch k := Kind(strings.ToLower(c.Type)); k {
	case KindInsert, KindUpdate, KindDelete:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown operation %q", ErrMalformedChangeEvent, c.Type)
	}
}

// Change is a normalized change for entity type T. Item is set for insert and
// update, ID for every kind.
type Change[T any] struct {
	Kind Kind
	ID   string
	Item T
}

// ParseNotification decodes a NOTIFY payload. The table name falls back to
// the channel name when the payload omits it.
func ParseNotification(channel, payload string) (RawChange, error) {
	var raw RawChange
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return RawChange{}, fmt.Errorf("%w: %v", ErrMalformedChangeEvent, err)
	}
	if raw.Table == "" {
		raw.Table = strings.TrimSuffix(channel, "_changes")
	}
	if _, err := raw.Kind(); err != nil {
		return RawChange{}, err
	}
	raw.ReceivedAt = time.Now()
	return raw, nil
}

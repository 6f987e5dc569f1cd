package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Hub fans change notifications out to per-table subscriptions.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	buffer int
}

// NewHub creates a hub whose subscriptions queue up to buffer events each.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:   make(map[string]*Subscription),
		buffer: buffer,
	}
}

// Subscription delivers one table's changes to a callback on its own
// goroutine, in arrival order.
type Subscription struct {
	ID    string
	Table string

	hub     *Hub
	events  chan RawChange
	onEvent func(RawChange)
	quit    chan struct{}

	mu     sync.Mutex
	closed bool
	once   sync.Once
}

// Open subscribes onEvent to changes on table.
func (h *Hub) Open(table string, onEvent func(RawChange)) *Subscription {
	s := &Subscription{
		ID:      uuid.NewString(),
		Table:   table,
		hub:     h,
		events:  make(chan RawChange, h.buffer),
		onEvent: onEvent,
		quit:    make(chan struct{}),
	}

	h.mu.Lock()
	h.subs[s.ID] = s
	total := len(h.subs)
	h.mu.Unlock()

	go s.deliver()

	log.Info().Str("subscription_id", s.ID).Str("table", table).Int("total_subscriptions", total).Msg("Subscription opened")
	return s
}

// Dispatch hands change to every subscription on its table.
// Non-blocking: drops the event for a subscriber whose queue is full.
func (h *Hub) Dispatch(change RawChange) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.subs {
		if s.Table != change.Table {
			continue
		}
		select {
		case s.events <- change:
		default:
			log.Warn().Str("subscription_id", s.ID).Str("table", s.Table).Msg("Subscription buffer full, dropping event")
		}
	}
}

// Run dispatches everything the stream delivers until ctx is done or the
// stream closes.
func (h *Hub) Run(ctx context.Context, stream Stream) {
	log.Info().Msg("Change hub started")
	for {
		select {
		case change, ok := <-stream.Changes():
			if !ok {
				log.Info().Msg("Change stream closed, hub stopping")
				return
			}
			h.Dispatch(change)
		case <-ctx.Done():
			log.Info().Msg("Change hub stopped")
			return
		}
	}
}

// SubscriptionCount returns the number of open subscriptions.
func (h *Hub) SubscriptionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	delete(h.subs, id)
	total := len(h.subs)
	h.mu.Unlock()
	log.Info().Str("subscription_id", id).Int("total_subscriptions", total).Msg("Subscription closed")
}

func (s *Subscription) deliver() {
	for {
		select {
		case ev := <-s.events:
			s.mu.Lock()
			if !s.closed {
				s.onEvent(ev)
			}
			s.mu.Unlock()
		case <-s.quit:
			return
		}
	}
}

// Close detaches the subscription. It waits for an in-flight callback to
// return, and no callback starts afterwards. Calling it again is a no-op.
// Must not be called from inside the callback.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s.ID)
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.quit)
	})
}

// Closed reports whether Close has been called.
func (s *Subscription) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

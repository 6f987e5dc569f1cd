// Package view keeps in-memory lists of phones and campaigns current from the
// change stream, with a full refetch as the fallback.
package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/muhammedkisla/deryailetisim/internal/realtime"
	"github.com/muhammedkisla/deryailetisim/internal/reconcile"
)

// Mode selects how change events are applied.
type Mode string

const (
	// ModeIncremental applies each event to the held list.
	ModeIncremental Mode = "incremental"
	// ModeDebounced refetches the whole list after a quiet window.
	ModeDebounced Mode = "debounced"
)

var ErrListClosed = errors.New("LIST_CLOSED")

// Fetcher loads the authoritative list.
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Mapper converts a raw change into a typed one.
type Mapper[T any] func(realtime.RawChange) (realtime.Change[T], error)

// Options configures a LiveList.
type Options struct {
	Name           string
	Table          string
	Mode           Mode
	DebounceWindow time.Duration
	FetchTimeout   time.Duration
}

// LiveList is a reconciled list bound to one table's change subscription.
type LiveList[T any] struct {
	opts      Options
	rec       *reconcile.Reconciler[T]
	fetch     Fetcher[T]
	mapChange Mapper[T]
	hub       *realtime.Hub

	// ctx is cancelled by Close so in-flight fetches stop.
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	sub       *realtime.Subscription
	closed    bool
	debounce  *time.Timer
	onRemove  []func(id string)
	refreshed time.Time
}

// NewLiveList wires a list. Nothing happens until Start.
func NewLiveList[T any](hub *realtime.Hub, rec *reconcile.Reconciler[T], fetch Fetcher[T], mapChange Mapper[T], opts Options) *LiveList[T] {
	if opts.Mode == "" {
		opts.Mode = ModeIncremental
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = 500 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &LiveList[T]{
		opts:      opts,
		rec:       rec,
		fetch:     fetch,
		mapChange: mapChange,
		hub:       hub,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Name identifies the list in logs.
func (l *LiveList[T]) Name() string { return l.opts.Name }

// OnRemove registers fn to run for every delete event on the table.
func (l *LiveList[T]) OnRemove(fn func(id string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onRemove = append(l.onRemove, fn)
}

// Start subscribes to changes and loads the initial list. The subscription
// is opened first so nothing committed during the fetch is missed. A failed
// fetch is returned but leaves the list subscribed; the refresh worker
// retries.
func (l *LiveList[T]) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrListClosed
	}
	if l.sub == nil {
		l.sub = l.hub.Open(l.opts.Table, l.handle)
	}
	l.mu.Unlock()

	return l.Refresh(ctx)
}

// Refresh replaces the list with a fresh fetch. On failure the held list is
// kept. A result that arrives after Close is discarded.
func (l *LiveList[T]) Refresh(ctx context.Context) error {
	fetchCtx, cancel := context.WithTimeout(l.ctx, l.opts.FetchTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	items, err := l.fetch(fetchCtx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrListClosed
	}
	if err != nil {
		log.Error().Err(err).Str("list", l.opts.Name).Msg("List refresh failed, keeping current data")
		return err
	}
	l.rec.Replace(items)
	l.refreshed = time.Now()
	log.Debug().Str("list", l.opts.Name).Int("count", l.rec.Len()).Msg("List refreshed")
	return nil
}

// Close releases the subscription and cancels in-flight fetches. After it
// returns no event is applied. Calling it again is a no-op.
func (l *LiveList[T]) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	sub := l.sub
	if l.debounce != nil {
		l.debounce.Stop()
	}
	l.mu.Unlock()

	l.cancel()
	if sub != nil {
		sub.Close()
	}
	log.Info().Str("list", l.opts.Name).Msg("List closed")
}

// Snapshot returns a copy of the current list.
func (l *LiveList[T]) Snapshot() []T { return l.rec.Snapshot() }

// Get returns the held item with the given id.
func (l *LiveList[T]) Get(id string) (T, bool) { return l.rec.Get(id) }

// Len returns the number of held items.
func (l *LiveList[T]) Len() int { return l.rec.Len() }

// RefreshedAt returns when the last successful full fetch landed.
func (l *LiveList[T]) RefreshedAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refreshed
}

func (l *LiveList[T]) handle(raw realtime.RawChange) {
	change, err := l.mapChange(raw)
	if err != nil {
		log.Warn().Err(err).Str("list", l.opts.Name).Str("type", raw.Type).Msg("Skipping change event")
		return
	}

	if l.opts.Mode == ModeDebounced {
		l.scheduleRefresh()
		if change.Kind == realtime.KindDelete {
			l.notifyRemove(change.ID)
		}
		return
	}

	var outcome reconcile.Outcome
	switch change.Kind {
	case realtime.KindInsert:
		outcome = l.rec.Insert(change.Item)
	case realtime.KindUpdate:
		outcome = l.rec.Update(change.Item)
	case realtime.KindDelete:
		outcome = l.rec.Delete(change.ID)
		l.notifyRemove(change.ID)
	}
	log.Debug().Str("list", l.opts.Name).Str("kind", string(change.Kind)).Str("id", change.ID).Stringer("outcome", outcome).Msg("Change applied")
}

func (l *LiveList[T]) notifyRemove(id string) {
	l.mu.Lock()
	hooks := append([]func(string){}, l.onRemove...)
	l.mu.Unlock()
	for _, fn := range hooks {
		fn(id)
	}
}

func (l *LiveList[T]) scheduleRefresh() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if l.debounce != nil {
		l.debounce.Reset(l.opts.DebounceWindow)
		return
	}
	l.debounce = time.AfterFunc(l.opts.DebounceWindow, func() {
		if err := l.Refresh(context.Background()); err != nil && !errors.Is(err, ErrListClosed) {
			log.Warn().Err(err).Str("list", l.opts.Name).Msg("Debounced refresh failed")
		}
	})
}

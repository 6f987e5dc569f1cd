package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Refresher is a live list that can reload itself from storage.
type Refresher interface {
	Name() string
	Refresh(ctx context.Context) error
}

// RefreshWorker periodically refetches every live list so missed change
// events are corrected within one interval. It also runs on demand (Poke)
// and whenever the change stream reports a reconnect.
type RefreshWorker struct {
	targets  []Refresher
	interval time.Duration
	resyncs  <-chan struct{}
	poke     chan struct{}
}

// NewRefreshWorker constructs a RefreshWorker. resyncs may be nil.
func NewRefreshWorker(interval time.Duration, resyncs <-chan struct{}, targets ...Refresher) *RefreshWorker {
	return &RefreshWorker{
		targets:  targets,
		interval: interval,
		resyncs:  resyncs,
		poke:     make(chan struct{}, 1),
	}
}

// Poke requests a refresh. Pokes that arrive while one is pending collapse
// into a single run.
func (w *RefreshWorker) Poke() {
	select {
	case w.poke <- struct{}{}:
	default:
	}
}

// Start begins the refresh loop and listens for context cancellation.
func (w *RefreshWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Int("lists", len(w.targets)).Msg("Starting refresh worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx, "interval")
		case <-w.poke:
			w.run(ctx, "poke")
		case <-w.resyncs:
			w.run(ctx, "resync")
		case <-ctx.Done():
			log.Info().Msg("Refresh worker stopped")
			return
		}
	}
}

func (w *RefreshWorker) run(ctx context.Context, reason string) {
	start := time.Now()
	failed := 0
	for _, t := range w.targets {
		if ctx.Err() != nil {
			return
		}
		if err := t.Refresh(ctx); err != nil {
			failed++
			log.Error().Err(err).Str("list", t.Name()).Str("reason", reason).Msg("Failed to refresh list")
		}
	}

	log.Debug().Str("reason", reason).Int("failed", failed).Dur("duration", time.Since(start)).Msg("Refresh completed")
}

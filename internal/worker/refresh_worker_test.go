package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingList struct {
	name  string
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (l *countingList) Name() string { return l.name }

func (l *countingList) Refresh(ctx context.Context) error {
	l.calls.Add(1)
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	return l.err
}

func TestRefreshWorker_RunsOnInterval(t *testing.T) {
	list := &countingList{name: "phones"}
	w := NewRefreshWorker(10*time.Millisecond, nil, list)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.Eventually(t, func() bool { return list.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestRefreshWorker_FailureDoesNotStopOtherLists(t *testing.T) {
	broken := &countingList{name: "broken", err: errors.New("db down")}
	healthy := &countingList{name: "healthy"}
	w := NewRefreshWorker(time.Hour, nil, broken, healthy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	w.Poke()
	require.Eventually(t, func() bool { return healthy.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, broken.calls.Load())

	// The worker keeps serving after a failure.
	w.Poke()
	require.Eventually(t, func() bool { return healthy.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestRefreshWorker_PokesCoalesce(t *testing.T) {
	list := &countingList{name: "phones", delay: 30 * time.Millisecond}
	w := NewRefreshWorker(time.Hour, nil, list)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	w.Poke()
	require.Eventually(t, func() bool { return list.calls.Load() == 1 }, time.Second, time.Millisecond)
	// While the first run is busy, a burst collapses into one pending run.
	for i := 0; i < 10; i++ {
		w.Poke()
	}

	time.Sleep(150 * time.Millisecond)
	assert.EqualValues(t, 2, list.calls.Load())
}

func TestRefreshWorker_ResyncTriggersRun(t *testing.T) {
	list := &countingList{name: "phones"}
	resyncs := make(chan struct{}, 1)
	w := NewRefreshWorker(time.Hour, resyncs, list)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	resyncs <- struct{}{}
	require.Eventually(t, func() bool { return list.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestRefreshWorker_StopsOnCancel(t *testing.T) {
	w := NewRefreshWorker(time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

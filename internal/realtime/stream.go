package realtime

import (
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Stream is a source of row change notifications.
type Stream interface {
	// Changes delivers parsed notifications. It is closed when the stream stops.
	Changes() <-chan RawChange
	// Resyncs signals that notifications may have been missed (for example
	// after a reconnect) and the live views should refetch.
	Resyncs() <-chan struct{}
	Close() error
}

// PGStream listens for trigger notifications with a pq.Listener. Reconnects
// are handled by the listener itself.
type PGStream struct {
	listener *pq.Listener
	changes  chan RawChange
	resyncs  chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewPGStream starts listening on the change channels of the given tables.
func NewPGStream(dsn string, minReconnect, maxReconnect time.Duration, tables ...string) (*PGStream, error) {
	listener := pq.NewListener(dsn, minReconnect, maxReconnect, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			log.Info().Msg("Change stream connected")
		case pq.ListenerEventDisconnected:
			log.Warn().Err(err).Msg("Change stream disconnected")
		case pq.ListenerEventReconnected:
			log.Info().Msg("Change stream reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			log.Warn().Err(err).Msg("Change stream connection attempt failed")
		}
	})

	for _, table := range tables {
		if err := listener.Listen(ChannelFor(table)); err != nil {
			_ = listener.Close()
			return nil, err
		}
	}

	s := &PGStream{
		listener: listener,
		changes:  make(chan RawChange, 256),
		resyncs:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go s.run()
	return s, nil
}

func (s *PGStream) Changes() <-chan RawChange { return s.changes }

func (s *PGStream) Resyncs() <-chan struct{} { return s.resyncs }

// Close stops listening. It is safe to call more than once.
func (s *PGStream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.listener.Close()
	})
	return err
}

func (s *PGStream) run() {
	defer close(s.changes)

	// Ping periodically so a silently dropped connection is noticed.
	ticker := time.NewTicker(90 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case n, ok := <-s.listener.Notify:
			if !ok {
				return
			}
			// pq sends nil after re-establishing a lost connection.
			if n == nil {
				s.signalResync()
				continue
			}
			raw, err := ParseNotification(n.Channel, n.Extra)
			if err != nil {
				log.Warn().Err(err).Str("channel", n.Channel).Msg("Dropping malformed notification")
				continue
			}
			select {
			case s.changes <- raw:
			case <-s.done:
				return
			}
		case <-ticker.C:
			go func() {
				if err := s.listener.Ping(); err != nil {
					log.Warn().Err(err).Msg("Change stream ping failed")
				}
			}()
		case <-s.done:
			return
		}
	}
}

func (s *PGStream) signalResync() {
	select {
	case s.resyncs <- struct{}{}:
	default:
	}
}

package usecase

import (
	"context"
	"sync"
	"time"

	"ConsensusBot/internal/domain/models"
	drepo "ConsensusBot/internal/domain/repository"
	"ConsensusBot/pkg/logger"
)

// EventSink moves engine events off the scan loop and routes them to the
// configured outputs: settled trades to the journal, snapshots and recent
// signals to the snapshot store, and every event to the publisher.
// Any output may be nil.
type EventSink struct {
	journal drepo.TradeJournal
	pub     drepo.EventPublisher
	snaps   drepo.SnapshotStore
	recent  func(n int) []models.Signal
	metrics drepo.Metrics
	log     *logger.Logger
	timeout time.Duration

	ch     chan models.EngineEvent
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

type SinkOption func(*EventSink)

func WithJournal(j drepo.TradeJournal) SinkOption     { return func(s *EventSink) { s.journal = j } }
func WithPublisher(p drepo.EventPublisher) SinkOption { return func(s *EventSink) { s.pub = p } }

// WithSnapshotStore also stores recent signals, read through recent, with every snapshot.
func WithSnapshotStore(st drepo.SnapshotStore, recent func(n int) []models.Signal) SinkOption {
	return func(s *EventSink) { s.snaps, s.recent = st, recent }
}

func WithSinkBuffer(n int) SinkOption {
	return func(s *EventSink) {
		if n > 0 {
			s.ch = make(chan models.EngineEvent, n)
		}
	}
}

func NewEventSink(metrics drepo.Metrics, log *logger.Logger, opts ...SinkOption) *EventSink {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	s := &EventSink{
		metrics: metrics,
		log:     log.With("event_sink"),
		timeout: 5 * time.Second,
		ch:      make(chan models.EngineEvent, 256),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach subscribes the sink to e's events and returns the unsubscribe func.
func (s *EventSink) Attach(e *Engine) func() {
	return e.SubscribeEvents(s.Handle)
}

// Handle enqueues ev without blocking; events are dropped when the buffer is full.
func (s *EventSink) Handle(ev models.EngineEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
		s.metrics.RecordError("sink_drop")
		s.log.Warn("event dropped", logger.String("kind", string(ev.Kind)))
	}
}

// Start launches the delivery worker.
func (s *EventSink) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for ev := range s.ch {
			s.deliver(ctx, ev)
		}
	}()
}

// Close stops accepting events and waits until queued ones are delivered.
func (s *EventSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *EventSink) deliver(parent context.Context, ev models.EngineEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.timeout)
	defer cancel()
	start := time.Now()

	switch ev.Kind {
	case models.EventTrade:
		if s.journal != nil && ev.Trade != nil {
			s.check("journal", ev, s.journal.Record(ctx, *ev.Trade))
		}
	case models.EventSnapshot:
		if s.snaps != nil && ev.Snapshot != nil {
			s.check("snapshot", ev, s.snaps.SaveSnapshot(ctx, *ev.Snapshot))
			if s.recent != nil {
				s.check("snapshot", ev, s.snaps.SaveSignals(ctx, s.recent(MaxRecentSignals)))
			}
		}
	}
	if s.pub != nil {
		s.check("publish", ev, s.pub.PublishEvent(ctx, ev))
	}
	s.metrics.RecordLatency("sink_deliver", time.Since(start).Seconds())
}

func (s *EventSink) check(output string, ev models.EngineEvent, err error) {
	if err == nil {
		return
	}
	s.metrics.RecordError("sink_" + output)
	s.log.Error("event delivery failed",
		logger.String("output", output),
		logger.String("kind", string(ev.Kind)),
		logger.Error(err),
	)
}

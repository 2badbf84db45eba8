package usecase

import (
	"context"
	"sync"
	"time"

	"ConsensusBot/internal/domain/models"
)

type fakeJournal struct {
	mu      sync.Mutex
	records []models.TradeRecord
	rows    []models.TradeRecord
	err     error
	query   struct {
		symbol   string
		from, to time.Time
		limit    int
	}
}

func (j *fakeJournal) Init(context.Context) error { return nil }

func (j *fakeJournal) Record(_ context.Context, t models.TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.records = append(j.records, t)
	return nil
}

func (j *fakeJournal) Query(_ context.Context, symbol string, from, to time.Time, limit int) ([]models.TradeRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.query.symbol, j.query.from, j.query.to, j.query.limit = symbol, from, to, limit
	if j.err != nil {
		return nil, j.err
	}
	return j.rows, nil
}

func (j *fakeJournal) Health(context.Context) error { return nil }
func (j *fakeJournal) Close() error                 { return nil }

func (j *fakeJournal) recorded() []models.TradeRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]models.TradeRecord(nil), j.records...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.EngineEvent
	block  chan struct{}
}

func (p *fakePublisher) PublishEvent(_ context.Context, ev models.EngineEvent) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) published() []models.EngineEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.EngineEvent(nil), p.events...)
}

type fakeSnapshots struct {
	mu      sync.Mutex
	snaps   []models.PerformanceSnapshot
	signals []models.Signal
}

func (s *fakeSnapshots) SaveSnapshot(_ context.Context, snap models.PerformanceSnapshot) error {
	s.mu.Lock()
	s.snaps = append(s.snaps, snap)
	s.mu.Unlock()
	return nil
}

func (s *fakeSnapshots) LatestSnapshot(context.Context) (models.PerformanceSnapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.snaps) == 0 {
		return models.PerformanceSnapshot{}, false, nil
	}
	return s.snaps[len(s.snaps)-1], true, nil
}

func (s *fakeSnapshots) SaveSignals(_ context.Context, signals []models.Signal) error {
	s.mu.Lock()
	s.signals = signals
	s.mu.Unlock()
	return nil
}

func (s *fakeSnapshots) RecentSignals(context.Context) ([]models.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signals, nil
}

// countingMetrics counts RecordError calls by kind.
type countingMetrics struct {
	nopMetrics
	mu     sync.Mutex
	errors map[string]int
}

func newCountingMetrics() *countingMetrics { return &countingMetrics{errors: map[string]int{}} }

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *countingMetrics) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

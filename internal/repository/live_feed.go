package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ConsensusBot/internal/domain/models"
	domrepo "ConsensusBot/internal/domain/repository"
	"ConsensusBot/internal/middleware"
)

const defaultMaxBars = 500

type barSeries struct {
	last    models.Sample
	open    *models.Candle
	closed  []models.Candle
	maxBars int
}

func (b *barSeries) add(s models.Sample, width time.Duration) {
	if !s.Timestamp.Before(b.last.Timestamp) {
		b.last = s
	}
	bucket := s.Timestamp.Truncate(width)
	if b.open != nil && bucket.After(b.open.Bucket) {
		b.push(*b.open)
		b.open = nil
	}
	if b.open == nil {
		b.open = &models.Candle{Bucket: bucket, Symbol: s.Symbol, Open: s.Price, High: s.Price, Low: s.Price, Close: s.Price}
	}
	c := b.open
	if bucket.Before(c.Bucket) {
		// late tick for an already closed bar
		return
	}
	c.High = max(c.High, s.Price)
	c.Low = min(c.Low, s.Price)
	c.Close = s.Price
	c.Volume += s.Volume
}

func (b *barSeries) push(c models.Candle) {
	if n := len(b.closed); n > 0 && !c.Bucket.After(b.closed[n-1].Bucket) {
		return
	}
	b.closed = append(b.closed, c)
	if len(b.closed) > b.maxBars {
		b.closed = append(b.closed[:0], b.closed[len(b.closed)-b.maxBars:]...)
	}
}

// LiveFeed aggregates streamed ticks into fixed width bars and serves them as
// a QuoteFeed. History only ever contains completed bars.
type LiveFeed struct {
	mu       sync.RWMutex
	width    time.Duration
	maxBars  int
	series   map[string]*barSeries
	backfill domrepo.CandleStore
}

var (
	_ domrepo.QuoteFeed = (*LiveFeed)(nil)
	_ middleware.Proc   = (*LiveFeed)(nil)
)

type LiveFeedOption func(*LiveFeed)

// WithBackfill seeds each symbol's history from store on first use.
func WithBackfill(store domrepo.CandleStore) LiveFeedOption {
	return func(f *LiveFeed) { f.backfill = store }
}

// WithMaxBars caps the completed bars kept per symbol.
func WithMaxBars(n int) LiveFeedOption {
	return func(f *LiveFeed) {
		if n > 0 {
			f.maxBars = n
		}
	}
}

func NewLiveFeed(width time.Duration, opts ...LiveFeedOption) *LiveFeed {
	if width <= 0 {
		width = time.Minute
	}
	f := &LiveFeed{width: width, maxBars: defaultMaxBars, series: make(map[string]*barSeries)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Process ingests one tick.
func (f *LiveFeed) Process(_ context.Context, s *models.Sample) error {
	if s == nil || s.Symbol == "" || s.Price <= 0 || s.Timestamp.IsZero() {
		return models.ErrInvalidSample
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seriesFor(s.Symbol).add(*s, f.width)
	return nil
}

func (f *LiveFeed) seriesFor(symbol string) *barSeries {
	b, ok := f.series[symbol]
	if !ok {
		b = &barSeries{maxBars: f.maxBars}
		f.series[symbol] = b
	}
	return b
}

// Backfill loads up to n persisted bars per symbol ahead of live data.
func (f *LiveFeed) Backfill(ctx context.Context, symbols []string, n int) error {
	if f.backfill == nil {
		return nil
	}
	for _, sym := range symbols {
		bars, err := f.backfill.GetLatestNCandles(ctx, sym, n, timeframeFor(f.width))
		if err != nil {
			return fmt.Errorf("backfill %s: %w", sym, err)
		}
		f.mu.Lock()
		b := f.seriesFor(sym)
		merged := make([]models.Candle, 0, len(bars)+len(b.closed))
		for _, c := range bars {
			if len(b.closed) == 0 || c.Bucket.Before(b.closed[0].Bucket) {
				merged = append(merged, c)
			}
		}
		b.closed = append(merged, b.closed...)
		if len(b.closed) > b.maxBars {
			b.closed = b.closed[len(b.closed)-b.maxBars:]
		}
		f.mu.Unlock()
	}
	return nil
}

func (f *LiveFeed) Sample(_ context.Context, symbol string) (models.Sample, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	b, ok := f.series[symbol]
	if !ok || b.last.Timestamp.IsZero() {
		return models.Sample{}, fmt.Errorf("no ticks for %s: %w", symbol, models.ErrInsufficientData)
	}
	return b.last, nil
}

func (f *LiveFeed) History(_ context.Context, symbol string, n int) ([]models.Candle, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	b, ok := f.series[symbol]
	if !ok || n <= 0 {
		return nil, nil
	}
	src := b.closed
	if len(src) > n {
		src = src[len(src)-n:]
	}
	return append([]models.Candle(nil), src...), nil
}

func timeframeFor(width time.Duration) domrepo.Timeframe {
	switch {
	case width <= time.Second:
		return domrepo.TF1s
	case width >= 5*time.Minute:
		return domrepo.TF5m
	default:
		return domrepo.TF1m
	}
}

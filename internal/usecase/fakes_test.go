package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"ConsensusBot/internal/domain/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// flatFeed serves a constant price so only an injected classifier can produce a signal.
type flatFeed struct {
	clock *fakeClock
	price float64
	err   error
}

func (f *flatFeed) Sample(_ context.Context, symbol string) (models.Sample, error) {
	if f.err != nil {
		return models.Sample{}, f.err
	}
	return models.Sample{Symbol: symbol, Price: f.price, Volume: 1000, Timestamp: f.clock.Now()}, nil
}

func (f *flatFeed) History(_ context.Context, symbol string, n int) ([]models.Candle, error) {
	now := f.clock.Now()
	out := make([]models.Candle, 0, 30)
	for i := 30; i > 0; i-- {
		out = append(out, models.Candle{
			Bucket: now.Add(-time.Duration(i) * time.Minute),
			Symbol: symbol,
			Open:   f.price, High: f.price, Low: f.price, Close: f.price,
			Volume: 1000,
		})
	}
	return out, nil
}

// scriptedVenue replays outcomes in order; an entry with err set fails that attempt.
type scriptedVenue struct {
	mu     sync.Mutex
	script []venueStep
	orders []models.Order
}

type venueStep struct {
	pnl    float64
	filled bool
	err    error
}

func win(pnl float64) venueStep { return venueStep{pnl: pnl, filled: true} }

func (v *scriptedVenue) SubmitOrder(_ context.Context, o models.Order) (models.TradeOutcome, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.orders = append(v.orders, o)
	if len(v.script) == 0 {
		return models.TradeOutcome{}, errors.New("no scripted outcome")
	}
	step := v.script[0]
	v.script = v.script[1:]
	if step.err != nil {
		return models.TradeOutcome{}, step.err
	}
	return models.TradeOutcome{OrderID: o.ID, Filled: step.filled, RealizedPnL: step.pnl, FillPrice: o.EntryPrice}, nil
}

func (v *scriptedVenue) calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.orders)
}

type bullishClassifier struct{}

func (bullishClassifier) Classify(context.Context, string, []float64) (*models.PatternMatch, error) {
	return &models.PatternMatch{Name: "Double Bottom", Bullish: true, Probability: 0.99}, nil
}

package strategy

import (
	"context"
	"math"

	"ConsensusBot/internal/domain/models"
	domsvc "ConsensusBot/internal/domain/service"
)

// Momentum follows an established trend: price above both averages with a rising
// histogram and a moderately strong oscillator (mirrored for sells).
type Momentum struct{ base }

func NewMomentum(desc models.StrategyDescriptor) *Momentum { return &Momentum{base{desc}} }

func (m *Momentum) Evaluate(_ context.Context, snap models.IndicatorSnapshot) (*models.Signal, error) {
	p, short, long := snap.Price, snap.EMA20, snap.EMA50
	hist, rsi := snap.MACD.Histogram, snap.RSI

	switch {
	case p > short && short > long && hist > 0 && rsi > 50 && rsi < 70:
		return m.emit(snap, models.Buy, momentumStrength(ratio(short-long, long), rsi, 60), ""), nil
	case p < short && short < long && hist < 0 && rsi > 30 && rsi < 50:
		return m.emit(snap, models.Sell, momentumStrength(ratio(long-short, long), rsi, 40), ""), nil
	}
	return nil, nil
}

// momentumStrength rewards a 1% average spread and an oscillator near the band centre.
func momentumStrength(spread, rsi, centre float64) float64 {
	sep := clamp01(spread / 0.01)
	mid := clamp01(1 - math.Abs(rsi-centre)/10)
	return 0.5*sep + 0.5*mid
}

var _ domsvc.Evaluator = (*Momentum)(nil)

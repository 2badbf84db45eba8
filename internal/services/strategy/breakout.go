package strategy

import (
	"context"

	"ConsensusBot/internal/domain/models"
	domsvc "ConsensusBot/internal/domain/service"
)

const (
	BreakoutMinVolatility  = 0.015
	BreakoutVolumeMultiple = 1.5
)

// Breakout trades a close outside the volatility band on expanding range and volume.
type Breakout struct{ base }

func NewBreakout(desc models.StrategyDescriptor) *Breakout { return &Breakout{base{desc}} }

func (b *Breakout) Evaluate(_ context.Context, snap models.IndicatorSnapshot) (*models.Signal, error) {
	if snap.VolumeSMA <= 0 {
		return nil, nil
	}
	vol := ratio(snap.ATR, snap.Price)
	vr := snap.Volume / snap.VolumeSMA
	if vol <= BreakoutMinVolatility || vr <= BreakoutVolumeMultiple {
		return nil, nil
	}
	strength := 0.5*clamp01((vol-BreakoutMinVolatility)/BreakoutMinVolatility) +
		0.5*clamp01((vr-BreakoutVolumeMultiple)/BreakoutVolumeMultiple)

	switch {
	case snap.Price > snap.Bollinger.Upper:
		return b.emit(snap, models.Buy, strength, ""), nil
	case snap.Price < snap.Bollinger.Lower:
		return b.emit(snap, models.Sell, strength, ""), nil
	}
	return nil, nil
}

var _ domsvc.Evaluator = (*Breakout)(nil)

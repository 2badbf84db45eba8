package strategy

import (
	"context"

	"ConsensusBot/internal/domain/models"
	domsvc "ConsensusBot/internal/domain/service"
)

// BandProximity is how close (as a fraction) price must be to a band to count as touching it.
const BandProximity = 0.005

// MeanReversion fades extremes: oversold at the lower band, overbought at the upper band.
type MeanReversion struct{ base }

func NewMeanReversion(desc models.StrategyDescriptor) *MeanReversion {
	return &MeanReversion{base{desc}}
}

func (m *MeanReversion) Evaluate(_ context.Context, snap models.IndicatorSnapshot) (*models.Signal, error) {
	bb := snap.Bollinger
	switch {
	case snap.RSI < 30 && snap.Price < bb.Lower*(1+BandProximity):
		return m.emit(snap, models.Buy, (30-snap.RSI)/20, ""), nil
	case snap.RSI > 70 && snap.Price > bb.Upper*(1-BandProximity):
		return m.emit(snap, models.Sell, (snap.RSI-70)/20, ""), nil
	}
	return nil, nil
}

var _ domsvc.Evaluator = (*MeanReversion)(nil)

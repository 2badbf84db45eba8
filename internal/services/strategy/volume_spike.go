package strategy

import (
	"context"

	"ConsensusBot/internal/domain/models"
	domsvc "ConsensusBot/internal/domain/service"
)

const SpikeVolumeMultiple = 3.0

// VolumeSpike follows the histogram direction when volume runs far above its baseline.
// A flat histogram gives no direction, so it abstains.
type VolumeSpike struct{ base }

func NewVolumeSpike(desc models.StrategyDescriptor) *VolumeSpike { return &VolumeSpike{base{desc}} }

func (v *VolumeSpike) Evaluate(_ context.Context, snap models.IndicatorSnapshot) (*models.Signal, error) {
	if snap.VolumeSMA <= 0 {
		return nil, nil
	}
	vr := snap.Volume / snap.VolumeSMA
	if vr <= SpikeVolumeMultiple {
		return nil, nil
	}
	strength := (vr - SpikeVolumeMultiple) / SpikeVolumeMultiple
	switch {
	case snap.MACD.Histogram > 0:
		return v.emit(snap, models.Buy, strength, ""), nil
	case snap.MACD.Histogram < 0:
		return v.emit(snap, models.Sell, strength, ""), nil
	}
	return nil, nil
}

var _ domsvc.Evaluator = (*VolumeSpike)(nil)

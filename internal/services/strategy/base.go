package strategy

import (
	"math"

	"ConsensusBot/internal/domain/models"
)

// base carries the descriptor of one evaluator and maps a rule's conviction into its band.
type base struct {
	desc models.StrategyDescriptor
}

func (b base) Name() string { return b.desc.Name }

// emit builds a candidate for action with the given conviction in [0,1].
// It returns nil when the resulting confidence is below the descriptor's minimum.
func (b base) emit(snap models.IndicatorSnapshot, action models.Action, strength float64, detail string) *models.Signal {
	band := b.desc.Bands.Buy
	if action == models.Sell {
		band = b.desc.Bands.Sell
	}
	s := clamp01(strength)
	conf := clamp01(band.ConfidenceMin + (band.ConfidenceMax-band.ConfidenceMin)*s)
	if conf < b.desc.MinConfidence {
		return nil
	}
	return &models.Signal{
		Symbol:            snap.Symbol,
		Action:            action,
		Confidence:        conf,
		ExpectedProfitPct: band.ProfitMin + (band.ProfitMax-band.ProfitMin)*s,
		RiskLevel:         clamp01(band.Risk),
		Strategy:          b.desc.Name,
		Detail:            detail,
		Timestamp:         snap.Timestamp,
	}
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// ratio returns a/b, or 0 when b is not positive.
func ratio(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}

package regime

import (
	"math"

	"ConsensusBot/internal/domain/models"
	domsvc "ConsensusBot/internal/domain/service"
	"ConsensusBot/internal/services/features"
)

const (
	// DetectThreshold is the confidence at which a condition counts as detected.
	DetectThreshold = 0.5
	returnsWindow   = 20
	trendFullSpread = 0.02
	volatileFullATR = 0.03
	volatileFullRV  = 0.02
	stableMaxWidth  = 0.04
)

// Detector scores market conditions from a single indicator snapshot.
type Detector struct{}

func NewDetector() *Detector { return &Detector{} }

// Detect returns a scored copy of each tracked condition, preserving order.
func (d *Detector) Detect(snap models.IndicatorSnapshot, tracked []models.MarketCondition) []models.MarketCondition {
	scores := Score(snap)
	out := make([]models.MarketCondition, 0, len(tracked))
	for _, c := range tracked {
		conf := scores[c.Type]
		out = append(out, models.MarketCondition{Type: c.Type, Confidence: conf, Detected: conf >= DetectThreshold})
	}
	return out
}

// Score computes a confidence in [0,1] for every condition type.
func Score(snap models.IndicatorSnapshot) map[models.ConditionType]float64 {
	trend := 0.0
	if snap.EMA50 > 0 {
		spread := math.Abs(snap.EMA20-snap.EMA50) / snap.EMA50
		trend = clamp01(spread / trendFullSpread)
		aligned := (snap.EMA20 > snap.EMA50) == (snap.MACD.Histogram > 0)
		if !aligned {
			trend *= 0.5
		}
	}

	rv := features.RealizedVolatility(features.LogReturns(snap.Closes), returnsWindow, 1)
	atrPct := 0.0
	if snap.Price > 0 {
		atrPct = snap.ATR / snap.Price
	}
	volatile := math.Max(clamp01(atrPct/volatileFullATR), clamp01(rv/volatileFullRV))

	width := 0.0
	if snap.Bollinger.Middle > 0 {
		width = (snap.Bollinger.Upper - snap.Bollinger.Lower) / snap.Bollinger.Middle
	}
	stable := clamp01(1-width/stableMaxWidth) * (1 - volatile)

	ranging := (1 - trend) * clamp01(1-math.Abs(snap.RSI-50)/20)

	return map[models.ConditionType]float64{
		models.ConditionTrending: trend,
		models.ConditionRanging:  ranging,
		models.ConditionVolatile: volatile,
		models.ConditionStable:   stable,
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

var _ domsvc.ConditionDetector = (*Detector)(nil)

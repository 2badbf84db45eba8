package regime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ConsensusBot/internal/domain/models"
)

func tracked() []models.MarketCondition {
	return models.DefaultEngineConfig().MarketConditions
}

func byType(cs []models.MarketCondition) map[models.ConditionType]models.MarketCondition {
	out := map[models.ConditionType]models.MarketCondition{}
	for _, c := range cs {
		out[c.Type] = c
	}
	return out
}

func TestDetectTrending(t *testing.T) {
	snap := models.IndicatorSnapshot{
		Price: 104, EMA20: 103, EMA50: 100, RSI: 68,
		MACD:      models.MACD{Histogram: 0.4},
		Bollinger: models.Bollinger{Upper: 106, Middle: 102, Lower: 98},
		ATR:       0.5,
	}
	got := byType(NewDetector().Detect(snap, tracked()))
	require.Len(t, got, 4)
	assert.True(t, got[models.ConditionTrending].Detected)
	assert.Equal(t, 1.0, got[models.ConditionTrending].Confidence)
	assert.False(t, got[models.ConditionRanging].Detected)
	assert.False(t, got[models.ConditionVolatile].Detected)
}

func TestDetectStableRange(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
		if i%2 == 1 {
			closes[i] = 100.05
		}
	}
	snap := models.IndicatorSnapshot{
		Price: 100, EMA20: 100.02, EMA50: 100.01, RSI: 50,
		Bollinger: models.Bollinger{Upper: 100.2, Middle: 100, Lower: 99.8},
		ATR:       0.06,
		Closes:    closes,
	}
	got := byType(NewDetector().Detect(snap, tracked()))
	assert.True(t, got[models.ConditionRanging].Detected)
	assert.True(t, got[models.ConditionStable].Detected)
	assert.False(t, got[models.ConditionTrending].Detected)
	assert.False(t, got[models.ConditionVolatile].Detected)
}

func TestDetectVolatile(t *testing.T) {
	snap := models.IndicatorSnapshot{
		Price: 100, EMA20: 100, EMA50: 100, RSI: 50,
		Bollinger: models.Bollinger{Upper: 110, Middle: 100, Lower: 90},
		ATR:       4,
	}
	got := byType(NewDetector().Detect(snap, tracked()))
	assert.True(t, got[models.ConditionVolatile].Detected)
	assert.False(t, got[models.ConditionStable].Detected)
}

func TestDetectOnlyTracked(t *testing.T) {
	got := NewDetector().Detect(models.IndicatorSnapshot{Price: 1}, []models.MarketCondition{{Type: models.ConditionVolatile}})
	require.Len(t, got, 1)
	assert.Equal(t, models.ConditionVolatile, got[0].Type)
}

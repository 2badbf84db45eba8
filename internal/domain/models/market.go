package models

import "time"

// Sample is a single quote observation for a symbol.
type Sample struct {
	Symbol    string
	Price     float64
	Volume    float64
	Timestamp time.Time
}

// Candle represents an OHLCV record used as indicator history.
type Candle struct {
	Bucket time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// MACD holds the trend-following pair.
type MACD struct {
	Value     float64 `json:"value"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// Bollinger holds the volatility band.
type Bollinger struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// IndicatorSnapshot is the per-symbol, per-cycle view consumed by every evaluator.
// It must be treated as read-only once produced; Closes is a private copy.
type IndicatorSnapshot struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
	RSI       float64   `json:"rsi"`
	MACD      MACD      `json:"macd"`
	EMA20     float64   `json:"ema20"`
	EMA50     float64   `json:"ema50"`
	EMA200    float64   `json:"ema200"`
	Bollinger Bollinger `json:"bollinger"`
	ATR       float64   `json:"atr"`
	VolumeSMA float64   `json:"volume_sma"`
	Closes    []float64 `json:"-"`
	Bars      int       `json:"bars"`
}

// ConditionType names a market regime.
type ConditionType string

const (
	ConditionTrending ConditionType = "trending"
	ConditionRanging  ConditionType = "ranging"
	ConditionVolatile ConditionType = "volatile"
	ConditionStable   ConditionType = "stable"
)

// MarketCondition describes one tracked regime and its latest detection.
type MarketCondition struct {
	Type       ConditionType `json:"type" yaml:"type" validate:"oneof=trending ranging volatile stable"`
	Detected   bool          `json:"detected" yaml:"-"`
	Confidence float64       `json:"confidence" yaml:"-"`
}

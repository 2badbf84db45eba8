package models

import "time"

// Action is a trade direction.
type Action string

const (
	Buy  Action = "buy"
	Sell Action = "sell"
)

// ConsensusStrategy is the strategy name carried by combined signals.
const ConsensusStrategy = "Multi-Strategy Consensus"

// Signal is produced by an evaluator (candidate) or by the combiner (final).
type Signal struct {
	Symbol            string    `json:"symbol"`
	Action            Action    `json:"action"`
	Confidence        float64   `json:"confidence"`
	ExpectedProfitPct float64   `json:"expected_profit_pct"`
	RiskLevel         float64   `json:"risk_level"`
	Strategy          string    `json:"strategy"`
	Detail            string    `json:"detail,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// PatternMatch is the result of a pattern classifier.
type PatternMatch struct {
	Name        string  `json:"name"`
	Bullish     bool    `json:"bullish"`
	Probability float64 `json:"probability"`
}

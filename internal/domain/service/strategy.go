package service

import (
	"context"

	"ConsensusBot/internal/domain/models"
)

// Evaluator turns an indicator snapshot into an optional candidate signal.
// A nil signal with a nil error means the evaluator abstains.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, snap models.IndicatorSnapshot) (*models.Signal, error)
}

// PatternClassifier recognizes chart patterns in a close series.
type PatternClassifier interface {
	Classify(ctx context.Context, symbol string, closes []float64) (*models.PatternMatch, error)
}

// ConditionDetector scores market regimes for a snapshot.
type ConditionDetector interface {
	Detect(snap models.IndicatorSnapshot, tracked []models.MarketCondition) []models.MarketCondition
}

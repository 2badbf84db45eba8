package strategy

import (
	"context"
	"fmt"

	"ConsensusBot/internal/domain/models"
	domsvc "ConsensusBot/internal/domain/service"
)

// MinPatternProbability is the classifier probability a match must exceed to be traded.
const MinPatternProbability = 0.85

// Pattern delegates recognition to a classifier and trades confident matches.
type Pattern struct {
	base
	classifier domsvc.PatternClassifier
}

func NewPattern(desc models.StrategyDescriptor, c domsvc.PatternClassifier) *Pattern {
	return &Pattern{base: base{desc}, classifier: c}
}

func (p *Pattern) Evaluate(ctx context.Context, snap models.IndicatorSnapshot) (*models.Signal, error) {
	if p.classifier == nil {
		return nil, nil
	}
	m, err := p.classifier.Classify(ctx, snap.Symbol, snap.Closes)
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", snap.Symbol, err)
	}
	if m == nil || m.Probability <= MinPatternProbability {
		return nil, nil
	}
	action := models.Sell
	if m.Bullish {
		action = models.Buy
	}
	strength := (m.Probability - MinPatternProbability) / (1 - MinPatternProbability)
	return p.emit(snap, action, strength, m.Name), nil
}

var _ domsvc.Evaluator = (*Pattern)(nil)

package analytics

import (
	"context"
	"fmt"

	"ConsensusBot/internal/domain/models"
	domsvc "ConsensusBot/internal/domain/service"
)

// HTTPPatternClassifier asks the analytics service to label a close series.
type HTTPPatternClassifier struct {
	base     *HTTPServiceBase
	attempts int
}

var _ domsvc.PatternClassifier = (*HTTPPatternClassifier)(nil)

func NewHTTPPatternClassifier(base *HTTPServiceBase) *HTTPPatternClassifier {
	return &HTTPPatternClassifier{base: base, attempts: 2}
}

type patternRequest struct {
	Symbol string    `json:"symbol"`
	Closes []float64 `json:"closes"`
}

type patternResponse struct {
	Pattern     string  `json:"pattern"`
	Bullish     bool    `json:"bullish"`
	Probability float64 `json:"probability"`
}

// Classify returns nil when the service reports no pattern.
func (c *HTTPPatternClassifier) Classify(ctx context.Context, symbol string, closes []float64) (*models.PatternMatch, error) {
	var pr patternResponse
	if err := c.base.PostJSONWithRetry(ctx, "/pattern/classify", patternRequest{Symbol: symbol, Closes: closes}, &pr, c.attempts); err != nil {
		return nil, fmt.Errorf("classify %s: %w", symbol, err)
	}
	if pr.Pattern == "" {
		return nil, nil
	}
	if pr.Probability < 0 || pr.Probability > 1 {
		return nil, fmt.Errorf("classify %s: probability %v out of range", symbol, pr.Probability)
	}
	return &models.PatternMatch{Name: pr.Pattern, Bullish: pr.Bullish, Probability: pr.Probability}, nil
}

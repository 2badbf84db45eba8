package strategy

import (
	"ConsensusBot/internal/domain/models"
	domsvc "ConsensusBot/internal/domain/service"
)

// Build returns evaluators for the enabled descriptors of cfg, in configuration order.
// Descriptors with unknown names are returned in skipped.
func Build(cfg models.EngineConfig, classifier domsvc.PatternClassifier) (evals []domsvc.Evaluator, skipped []string) {
	for _, d := range cfg.Strategies {
		if !d.Enabled {
			continue
		}
		switch d.Name {
		case models.StrategyMomentum:
			evals = append(evals, NewMomentum(d))
		case models.StrategyMeanReversion:
			evals = append(evals, NewMeanReversion(d))
		case models.StrategyBreakout:
			evals = append(evals, NewBreakout(d))
		case models.StrategyPattern:
			evals = append(evals, NewPattern(d, classifier))
		case models.StrategyVolumeSpike:
			evals = append(evals, NewVolumeSpike(d))
		default:
			skipped = append(skipped, d.Name)
		}
	}
	return evals, skipped
}

package usecase

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"ConsensusBot/internal/domain/models"
)

var validate = validator.New()

// ValidateEngineConfig checks field bounds and cross-field rules.
// Failures are reported as *models.ConfigError.
func ValidateEngineConfig(cfg models.EngineConfig) error {
	if err := validate.Struct(cfg); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			fe := ve[0]
			return &models.ConfigError{
				Field:  fe.Namespace(),
				Reason: fmt.Sprintf("failed %q (%s)", fe.Tag(), fe.Param()),
				Err:    err,
			}
		}
		return &models.ConfigError{Reason: err.Error(), Err: err}
	}

	seen := make(map[string]bool, len(cfg.Strategies))
	active := 0.0
	for _, s := range cfg.Strategies {
		if seen[s.Name] {
			return &models.ConfigError{Field: "Strategies", Reason: fmt.Sprintf("duplicate strategy %q", s.Name)}
		}
		seen[s.Name] = true
		if s.Enabled {
			active += s.Weight
		}
	}
	if active <= 0 {
		return &models.ConfigError{Field: "Strategies", Reason: "no enabled strategy carries weight"}
	}
	if cfg.MinWinRate > cfg.TargetWinRate {
		return &models.ConfigError{Field: "MinWinRate", Reason: "must not exceed target_win_rate"}
	}

	types := make(map[models.ConditionType]bool, len(cfg.MarketConditions))
	for _, c := range cfg.MarketConditions {
		if types[c.Type] {
			return &models.ConfigError{Field: "MarketConditions", Reason: fmt.Sprintf("duplicate condition %q", c.Type)}
		}
		types[c.Type] = true
	}
	return nil
}

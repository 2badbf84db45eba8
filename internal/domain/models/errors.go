package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSample    = errors.New("invalid sample")
	ErrInsufficientData = errors.New("insufficient data")
	ErrOrderRejected    = errors.New("order rejected")
	ErrNotRunning       = errors.New("engine not running")
	ErrAlreadyRunning   = errors.New("engine already running")
	ErrEngineClosed     = errors.New("engine closed")
	ErrWinRateBelowMin  = errors.New("win_rate_below_minimum")
	ErrFeedExhausted    = errors.New("feed exhausted")
)

// IndicatorError means a symbol's cycle was skipped because its data was unusable.
type IndicatorError struct {
	Symbol string
	Err    error
}

func (e *IndicatorError) Error() string {
	return fmt.Sprintf("indicator %s: %v", e.Symbol, e.Err)
}

func (e *IndicatorError) Unwrap() error { return e.Err }

// ExecutionError means the venue failed twice for the same order.
type ExecutionError struct {
	OrderID  string
	Symbol   string
	Attempts int
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution %s (%s) failed after %d attempts: %v", e.OrderID, e.Symbol, e.Attempts, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// ConfigError rejects a configuration update; the prior config stays active.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid config: %s", e.Reason)
	}
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

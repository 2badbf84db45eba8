package repository

import (
	"context"
	"strings"
	"time"

	"ConsensusBot/internal/domain/models"
)

// Timeframe represents candle resolution buckets.
type Timeframe string

const (
	TF1s Timeframe = "1s"
	TF1m Timeframe = "1m"
	TF5m Timeframe = "5m"
)

// Duration returns the bucket width of tf.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TF1s:
		return time.Second
	case TF5m:
		return 5 * time.Minute
	default:
		return time.Minute
	}
}

// ParseTimeframe maps a configured resolution onto a stored one. Unknown
// values read as 1m.
func ParseTimeframe(s string) Timeframe {
	switch tf := Timeframe(strings.ToLower(strings.TrimSpace(s))); tf {
	case TF1s, TF5m:
		return tf
	}
	return TF1m
}

// CandleStore provides read-only access to persisted candles.
type CandleStore interface {
	GetCandles(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
}

package features

import (
	"math"
	"time"

	drepo "ConsensusBot/internal/domain/repository"
)

// LogReturns computes r_t = ln(C_t / C_{t-1}) over a close series.
// It returns a slice of length len(closes)-1, or nil if insufficient data.
func LogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev, cur := closes[i-1], closes[i]
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility is the sample deviation of the latest window of returns scaled by
// sqrt(barsPerYear). Pass barsPerYear = 1 for a per-bar figure.
func RealizedVolatility(logReturns []float64, window int, barsPerYear float64) float64 {
	if window > len(logReturns) {
		window = len(logReturns)
	}
	if window <= 1 {
		return 0
	}
	sum := 0.0
	sum2 := 0.0
	for _, r := range logReturns[len(logReturns)-window:] {
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * barsPerYear)
}

// AlignFromTo rounds a time range down to candle boundaries.
func AlignFromTo(from, to time.Time, tf drepo.Timeframe) (time.Time, time.Time) {
	d := tf.Duration()
	return from.Truncate(d), to.Truncate(d)
}

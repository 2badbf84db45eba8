package strategy

import (
	"context"
	"math"

	"ConsensusBot/internal/domain/models"
	domsvc "ConsensusBot/internal/domain/service"
)

const (
	PatternBullFlag       = "Bull Flag"
	PatternHeadShoulders  = "Head & Shoulders"
	PatternDoubleBottom   = "Double Bottom"
	PatternTripleTop      = "Triple Top"
	defaultPivotLookback  = 2
	defaultPatternWindow  = 60
	confirmedBaseProb     = 0.86
	confirmedProbSpread   = 0.12
	flagPoleBars          = 20
	flagBars              = 10
	flagMinPoleGain       = 0.03
	levelTolerance        = 0.01
	shoulderTolerance     = 0.02
	headMinExcess         = 0.02
	doubleBottomMinBounce = 0.03
)

// RuleClassifier recognizes a few classic close-only chart patterns with swing pivots.
// Probabilities above 0.85 are only produced for confirmed (broken-out) patterns.
type RuleClassifier struct {
	Lookback int
	Window   int
}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{Lookback: defaultPivotLookback, Window: defaultPatternWindow}
}

func (r *RuleClassifier) Classify(_ context.Context, _ string, closes []float64) (*models.PatternMatch, error) {
	w := r.Window
	if w <= 0 {
		w = defaultPatternWindow
	}
	if len(closes) > w {
		closes = closes[len(closes)-w:]
	}
	lb := r.Lookback
	if lb <= 0 {
		lb = defaultPivotLookback
	}
	for _, detect := range []func([]float64, int) *models.PatternMatch{
		bullFlag, headAndShoulders, doubleBottom, tripleTop,
	} {
		if m := detect(closes, lb); m != nil {
			return m, nil
		}
	}
	return nil, nil
}

// swingHighs returns indices where x[i] is the maximum of its ±lb neighbourhood.
func swingHighs(x []float64, lb int) []int {
	var idx []int
	for i := lb; i < len(x)-lb; i++ {
		ok := true
		for j := i - lb; j <= i+lb; j++ {
			if x[j] > x[i] {
				ok = false
				break
			}
		}
		if ok && (len(idx) == 0 || i-idx[len(idx)-1] > lb) {
			idx = append(idx, i)
		}
	}
	return idx
}

func swingLows(x []float64, lb int) []int {
	var idx []int
	for i := lb; i < len(x)-lb; i++ {
		ok := true
		for j := i - lb; j <= i+lb; j++ {
			if x[j] < x[i] {
				ok = false
				break
			}
		}
		if ok && (len(idx) == 0 || i-idx[len(idx)-1] > lb) {
			idx = append(idx, i)
		}
	}
	return idx
}

func minBetween(x []float64, from, to int) float64 {
	m := math.Inf(1)
	for i := from; i <= to; i++ {
		m = math.Min(m, x[i])
	}
	return m
}

func maxBetween(x []float64, from, to int) float64 {
	m := math.Inf(-1)
	for i := from; i <= to; i++ {
		m = math.Max(m, x[i])
	}
	return m
}

func near(a, b, tol float64) bool {
	lo := math.Min(a, b)
	return lo > 0 && math.Abs(a-b)/lo <= tol
}

// confirmed maps how far price has moved through the trigger level into a probability.
func confirmed(move float64) float64 {
	return confirmedBaseProb + confirmedProbSpread*clamp01(move/0.02)
}

func bullFlag(x []float64, _ int) *models.PatternMatch {
	n := len(x)
	if n < flagPoleBars+flagBars {
		return nil
	}
	start, top := x[n-flagBars-flagPoleBars], x[n-flagBars]
	pole := top - start
	if start <= 0 || pole/start < flagMinPoleGain {
		return nil
	}
	flag := x[n-flagBars:]
	hi, lo := maxBetween(flag, 0, len(flag)-1), minBetween(flag, 0, len(flag)-1)
	if hi-lo > 0.5*pole || lo < start+0.5*pole {
		return nil
	}
	if flag[len(flag)-1] > flag[0]*1.005 {
		return nil
	}
	gain := pole / start
	return &models.PatternMatch{
		Name:        PatternBullFlag,
		Bullish:     true,
		Probability: confirmedBaseProb + confirmedProbSpread*clamp01((gain-flagMinPoleGain)/0.05),
	}
}

func headAndShoulders(x []float64, lb int) *models.PatternMatch {
	hs := swingHighs(x, lb)
	if len(hs) < 3 {
		return nil
	}
	l, h, r := hs[len(hs)-3], hs[len(hs)-2], hs[len(hs)-1]
	if x[h] < (1+headMinExcess)*math.Max(x[l], x[r]) || !near(x[l], x[r], shoulderTolerance) {
		return nil
	}
	neck := minBetween(x, l, r)
	last := x[len(x)-1]
	if last >= neck {
		return nil
	}
	return &models.PatternMatch{Name: PatternHeadShoulders, Bullish: false, Probability: confirmed(neck/last - 1)}
}

func doubleBottom(x []float64, lb int) *models.PatternMatch {
	ls := swingLows(x, lb)
	if len(ls) < 2 {
		return nil
	}
	a, b := ls[len(ls)-2], ls[len(ls)-1]
	if !near(x[a], x[b], levelTolerance) {
		return nil
	}
	peak := maxBetween(x, a, b)
	if peak < (1+doubleBottomMinBounce)*math.Max(x[a], x[b]) {
		return nil
	}
	last := x[len(x)-1]
	if last <= peak {
		return nil
	}
	return &models.PatternMatch{Name: PatternDoubleBottom, Bullish: true, Probability: confirmed(last/peak - 1)}
}

func tripleTop(x []float64, lb int) *models.PatternMatch {
	hs := swingHighs(x, lb)
	if len(hs) < 3 {
		return nil
	}
	a, b, c := hs[len(hs)-3], hs[len(hs)-2], hs[len(hs)-1]
	if !near(x[a], x[b], levelTolerance) || !near(x[b], x[c], levelTolerance) || !near(x[a], x[c], levelTolerance) {
		return nil
	}
	support := minBetween(x, a, c)
	last := x[len(x)-1]
	if last >= support {
		return nil
	}
	return &models.PatternMatch{Name: PatternTripleTop, Bullish: false, Probability: confirmed(support/last - 1)}
}

var _ domsvc.PatternClassifier = (*RuleClassifier)(nil)

package risk

import (
	"math"

	"ConsensusBot/internal/domain/models"
)

// HardCapFraction bounds any position to this share of the balance.
const HardCapFraction = 0.20

// Size converts a final signal into a position size with a fractional, capped Kelly bet.
// It returns 0 when the balance is not positive or the Kelly edge is not positive.
func Size(sig models.Signal, acct models.AccountState, cfg models.EngineConfig, perf models.PerformanceSnapshot) float64 {
	if acct.Balance <= 0 {
		return 0
	}
	payoff := cfg.PayoffRatio()
	if payoff <= 0 {
		return 0
	}
	f := KellyFraction(WinRate(cfg, perf), payoff)
	if f <= 0 {
		return 0
	}

	pct := math.Min(f*100*cfg.KellyMultiplier, math.Min(cfg.MaxPositionPct, HardCapFraction*100))
	conf := math.Max(0, math.Min(sig.Confidence, 1))

	base := acct.Balance
	if !cfg.CompoundProfits && acct.StartingBalance > 0 {
		base = math.Min(acct.StartingBalance, acct.Balance)
	}
	size := base * pct / 100 * conf
	return math.Min(size, HardCapFraction*acct.Balance)
}

// KellyFraction is f = p - (1-p)/b.
func KellyFraction(winRate, payoff float64) float64 {
	return winRate - (1-winRate)/payoff
}

// WinRate picks the probability fed to the Kelly formula.
// With the optimistic floor the configured target is a lower bound; without it the
// observed rate is used once any trade has settled.
func WinRate(cfg models.EngineConfig, perf models.PerformanceSnapshot) float64 {
	if cfg.OptimisticWinRateFloor {
		return math.Max(perf.WinRate, cfg.TargetWinRate)
	}
	if perf.TotalTrades == 0 {
		return cfg.TargetWinRate
	}
	return perf.WinRate
}

// Targets returns the take-profit and stop prices for an order entered at price.
func Targets(action models.Action, price float64, cfg models.EngineConfig) (target, stop float64) {
	p, r := cfg.ProfitPerTradePct/100, cfg.MaxRiskPerTradePct/100
	if action == models.Sell {
		return price * (1 - p), price * (1 + r)
	}
	return price * (1 + p), price * (1 - r)
}

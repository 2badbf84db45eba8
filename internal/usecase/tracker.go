package usecase

import (
	"math"
	"sync"
	"sync/atomic"

	"ConsensusBot/internal/domain/models"
	"ConsensusBot/pkg/logger"
)

type settled struct {
	pnl float64
	ret float64
}

// Tracker keeps the settled trade list and the latest performance snapshot.
// Snapshots are rebuilt from the full list on every settlement.
type Tracker struct {
	mu        sync.Mutex
	trades    []settled
	snap      atomic.Pointer[models.PerformanceSnapshot]
	observers *observerList[models.PerformanceSnapshot]
}

func NewTracker(log *logger.Logger) *Tracker {
	t := &Tracker{observers: newObserverList[models.PerformanceSnapshot]("performance", log)}
	t.snap.Store(&models.PerformanceSnapshot{})
	return t
}

// Snapshot returns the last fully settled snapshot; safe from any goroutine.
func (t *Tracker) Snapshot() models.PerformanceSnapshot { return *t.snap.Load() }

// Subscribe registers fn for every new snapshot and returns its unsubscribe handle.
func (t *Tracker) Subscribe(fn func(models.PerformanceSnapshot)) func() {
	return t.observers.add(fn)
}

// Record appends a settled trade, recomputes the snapshot, publishes it and notifies
// observers synchronously in registration order.
func (t *Tracker) Record(rec models.TradeRecord, balanceBefore float64, acct models.AccountState, maxDailyTrades int) models.PerformanceSnapshot {
	t.mu.Lock()
	ret := 0.0
	if balanceBefore > 0 {
		ret = rec.RealizedPnL / balanceBefore
	}
	t.trades = append(t.trades, settled{pnl: rec.RealizedPnL, ret: ret})
	snap := compute(t.trades, acct, maxDailyTrades)
	snap.UpdatedAt = rec.SettledAt
	t.snap.Store(&snap)
	t.mu.Unlock()

	t.observers.notify(snap)
	return snap
}

// Refresh republishes account-derived fields (balance, today's profit, trades left)
// without a new trade, e.g. after a day rollover. Observers are not notified.
func (t *Tracker) Refresh(acct models.AccountState, maxDailyTrades int) models.PerformanceSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.Snapshot()
	snap := compute(t.trades, acct, maxDailyTrades)
	snap.UpdatedAt = prev.UpdatedAt
	t.snap.Store(&snap)
	return snap
}

// Reset drops the trade history.
func (t *Tracker) Reset(acct models.AccountState, maxDailyTrades int) {
	t.mu.Lock()
	t.trades = nil
	t.mu.Unlock()
	t.Refresh(acct, maxDailyTrades)
}

func compute(trades []settled, acct models.AccountState, maxDailyTrades int) models.PerformanceSnapshot {
	s := models.PerformanceSnapshot{
		TotalTrades:     len(trades),
		TodayProfit:     acct.TodayProfit,
		Balance:         acct.Balance,
		TradesRemaining: max(0, maxDailyTrades-acct.TodayTrades),
	}
	if len(trades) == 0 {
		return s
	}

	var grossWin, grossLoss, sumRet float64
	equity := acct.StartingBalance
	peak := equity
	for _, tr := range trades {
		s.TotalProfit += tr.pnl
		sumRet += tr.ret
		if tr.pnl > 0 {
			s.WinningTrades++
			grossWin += tr.pnl
			s.CurrentStreak++
			if s.CurrentStreak > s.LongestWinStreak {
				s.LongestWinStreak = s.CurrentStreak
			}
		} else {
			grossLoss += -tr.pnl
			s.CurrentStreak = 0
		}

		equity += tr.pnl
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (peak - equity) / peak; dd > s.MaxDrawdown {
				s.MaxDrawdown = dd
			}
		}
	}

	n := float64(len(trades))
	s.LosingTrades = s.TotalTrades - s.WinningTrades
	s.WinRate = float64(s.WinningTrades) / n
	s.AverageProfitPerTrade = s.TotalProfit / n
	if grossLoss > 0 {
		s.ProfitFactor = grossWin / grossLoss
	}

	if len(trades) > 1 {
		mean := sumRet / n
		var ss float64
		for _, tr := range trades {
			d := tr.ret - mean
			ss += d * d
		}
		if sd := math.Sqrt(ss / (n - 1)); sd > 0 {
			s.SharpeRatio = mean / sd
		}
	}
	return s
}

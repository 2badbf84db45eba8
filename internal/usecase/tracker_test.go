package usecase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ConsensusBot/internal/domain/models"
	"ConsensusBot/pkg/logger"
)

func record(tr *Tracker, acct *models.AccountState, pnl float64) models.PerformanceSnapshot {
	before := acct.Balance
	acct.Balance += pnl
	acct.TotalProfit += pnl
	acct.TodayProfit += pnl
	acct.TodayTrades++
	rec := models.TradeRecord{RealizedPnL: pnl, SettledAt: day0}
	return tr.Record(rec, before, *acct, 20)
}

func TestTrackerStatistics(t *testing.T) {
	tr := NewTracker(logger.NewNop())
	acct := &models.AccountState{Balance: 1000, StartingBalance: 1000}

	var snap models.PerformanceSnapshot
	for _, pnl := range []float64{100, 50, -30, 20, 40, 60} {
		snap = record(tr, acct, pnl)
	}

	assert.Equal(t, 6, snap.TotalTrades)
	assert.Equal(t, 5, snap.WinningTrades)
	assert.Equal(t, 1, snap.LosingTrades)
	assert.InDelta(t, 5.0/6.0, snap.WinRate, 1e-12)
	assert.InDelta(t, 240, snap.TotalProfit, 1e-9)
	assert.InDelta(t, 40, snap.AverageProfitPerTrade, 1e-9)
	assert.InDelta(t, 270.0/30.0, snap.ProfitFactor, 1e-9)
	assert.Equal(t, 3, snap.CurrentStreak)
	assert.Equal(t, 3, snap.LongestWinStreak)
	assert.Equal(t, 14, snap.TradesRemaining)
	assert.InDelta(t, 1240, snap.Balance, 1e-9)
	assert.InDelta(t, 30.0/1150.0, snap.MaxDrawdown, 1e-12)
	assert.Greater(t, snap.SharpeRatio, 0.0)
	assert.Equal(t, snap, tr.Snapshot())
}

func TestTrackerNoLossesProfitFactorZero(t *testing.T) {
	tr := NewTracker(logger.NewNop())
	acct := &models.AccountState{Balance: 1000, StartingBalance: 1000}
	snap := record(tr, acct, 10)
	assert.Zero(t, snap.ProfitFactor)
	assert.Zero(t, snap.SharpeRatio, "one trade has no deviation")
	assert.Equal(t, 1.0, snap.WinRate)
}

func TestTrackerSharpe(t *testing.T) {
	tr := NewTracker(logger.NewNop())
	acct := &models.AccountState{Balance: 1000, StartingBalance: 1000}
	record(tr, acct, 100)          // +10%
	snap := record(tr, acct, -110) // -10%

	// mean 0 => ratio 0
	assert.InDelta(t, 0, snap.SharpeRatio, 1e-12)
	assert.False(t, math.IsNaN(snap.SharpeRatio))
}

func TestTrackerObserversOrderAndPanicSafety(t *testing.T) {
	tr := NewTracker(logger.NewNop())
	acct := &models.AccountState{Balance: 1000, StartingBalance: 1000}

	var order []string
	tr.Subscribe(func(models.PerformanceSnapshot) { order = append(order, "first") })
	tr.Subscribe(func(models.PerformanceSnapshot) { panic("observer bug") })
	unsub := tr.Subscribe(func(s models.PerformanceSnapshot) {
		order = append(order, "third")
		assert.Equal(t, s, tr.Snapshot(), "snapshot is published before observers run")
	})

	require.NotPanics(t, func() { record(tr, acct, 5) })
	assert.Equal(t, []string{"first", "third"}, order)

	unsub()
	unsub()
	record(tr, acct, 5)
	assert.Equal(t, []string{"first", "third", "first"}, order)
}

func TestTrackerRefreshKeepsHistory(t *testing.T) {
	tr := NewTracker(logger.NewNop())
	acct := &models.AccountState{Balance: 1000, StartingBalance: 1000}
	record(tr, acct, 5)

	acct.TodayProfit, acct.TodayTrades = 0, 0
	snap := tr.Refresh(*acct, 20)
	assert.Equal(t, 1, snap.TotalTrades)
	assert.Zero(t, snap.TodayProfit)
	assert.Equal(t, 20, snap.TradesRemaining)
	assert.Equal(t, day0, snap.UpdatedAt)
}

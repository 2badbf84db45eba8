package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ConsensusBot/internal/domain/models"
)

var day0 = time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)

func scenarioConfig() models.EngineConfig {
	cfg := models.DefaultEngineConfig()
	cfg.MaxDailyTrades = 2
	cfg.DailyProfitGoal = 100
	cfg.ProfitPerTradePct = 2.5
	cfg.MaxRiskPerTradePct = 0.8
	return cfg
}

func filled(pnl float64) models.TradeOutcome {
	return models.TradeOutcome{Filled: true, RealizedPnL: pnl}
}

func TestGovernorTransitions(t *testing.T) {
	g := NewGovernor(10000, newFakeClock(day0), nil)
	assert.Equal(t, models.StateStopped, g.State())
	assert.False(t, g.Stop())
	assert.True(t, g.Start())
	assert.False(t, g.Start())
	assert.Equal(t, models.StateRunning, g.State())
	assert.True(t, g.Stop())
	assert.Equal(t, models.StateStopped, g.State())
}

func TestGovernorProfitGoalCheckedFirst(t *testing.T) {
	cfg := scenarioConfig()
	g := NewGovernor(10000, newFakeClock(day0), nil)
	require.True(t, g.Start())

	ok, h := g.Admit(cfg)
	require.True(t, ok)
	require.Nil(t, h)
	g.Settle(filled(125))

	ok, h = g.Admit(cfg)
	assert.False(t, ok)
	require.NotNil(t, h)
	assert.Equal(t, models.StateHaltedForDailyGoal, h.State)
	assert.Equal(t, ReasonDailyGoal, h.Reason)
	assert.Equal(t, 1, h.TodayTrades)
	assert.Equal(t, models.StateHaltedForDailyGoal, g.State())

	g.Finish()
	assert.Equal(t, models.StateStopped, g.State())
	assert.Equal(t, 10125.0, g.Account().Balance)
}

func TestGovernorTradeLimit(t *testing.T) {
	cfg := scenarioConfig()
	cfg.DailyProfitGoal = 1000
	g := NewGovernor(10000, newFakeClock(day0), nil)
	require.True(t, g.Start())

	for _, pnl := range []float64{125, 140} {
		ok, h := g.Admit(cfg)
		require.True(t, ok)
		require.Nil(t, h)
		g.Settle(filled(pnl))
	}
	h := g.Check(cfg)
	require.NotNil(t, h)
	assert.Equal(t, models.StateHaltedForTradeLimit, h.State)
	assert.Equal(t, 265.0, g.Account().TodayProfit)
	assert.Equal(t, 2, g.Account().TodayTrades)
}

func TestGovernorDiscardsWhenNotRunning(t *testing.T) {
	g := NewGovernor(10000, newFakeClock(day0), nil)
	ok, h := g.Admit(scenarioConfig())
	assert.False(t, ok)
	assert.Nil(t, h)
	assert.Nil(t, g.Check(scenarioConfig()))
}

func TestGovernorRestartSameDayKeepsCounters(t *testing.T) {
	cfg := scenarioConfig()
	g := NewGovernor(10000, newFakeClock(day0), nil)
	require.True(t, g.Start())
	g.Settle(filled(150))
	require.NotNil(t, g.Check(cfg))
	g.Finish()

	for i := 0; i < 3; i++ {
		require.True(t, g.Start())
		ok, h := g.Admit(cfg)
		assert.False(t, ok)
		require.NotNil(t, h)
		assert.Equal(t, models.StateHaltedForDailyGoal, h.State)
		g.Finish()
	}
	assert.Equal(t, 1, g.Account().TodayTrades)
}

func TestGovernorDayRollover(t *testing.T) {
	cfg := scenarioConfig()
	clock := newFakeClock(day0)
	g := NewGovernor(10000, clock, nil)
	require.True(t, g.Start())
	g.Settle(filled(150))
	require.NotNil(t, g.Check(cfg))
	g.Finish()

	clock.Advance(24 * time.Hour)
	require.True(t, g.Start())
	ok, h := g.Admit(cfg)
	assert.True(t, ok)
	assert.Nil(t, h)
	acct := g.Account()
	assert.Zero(t, acct.TodayTrades)
	assert.Zero(t, acct.TodayProfit)
	assert.Equal(t, 150.0, acct.TotalProfit)
	assert.Equal(t, "2025-06-03", acct.Day)
}

func TestGovernorRolloverHookFromAdmit(t *testing.T) {
	clock := newFakeClock(day0)
	g := NewGovernor(10000, clock, nil)
	var seen []models.AccountState
	g.OnRollover(func(a models.AccountState) { seen = append(seen, a) })

	require.True(t, g.Start())
	g.Settle(filled(40))
	ok, _ := g.Admit(scenarioConfig())
	require.True(t, ok)
	assert.Empty(t, seen)

	clock.Advance(24 * time.Hour)
	ok, _ = g.Admit(scenarioConfig())
	require.True(t, ok)
	require.Len(t, seen, 1)
	assert.Equal(t, "2025-06-03", seen[0].Day)
	assert.Zero(t, seen[0].TodayTrades)
	assert.Equal(t, 40.0, seen[0].TotalProfit)

	assert.False(t, g.Rollover())
	assert.Len(t, seen, 1)
}

func TestGovernorRolloverUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	clock := newFakeClock(time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)) // 23:30 JST
	g := NewGovernor(10000, clock, tokyo)
	assert.Equal(t, "2025-06-02", g.Account().Day)

	clock.Advance(time.Hour)
	assert.True(t, g.Rollover())
	assert.Equal(t, "2025-06-03", g.Account().Day)
}

func TestGovernorUnfilledNotCounted(t *testing.T) {
	g := NewGovernor(10000, newFakeClock(day0), nil)
	require.True(t, g.Start())
	before, acct := g.Settle(models.TradeOutcome{Filled: false, RealizedPnL: 99})
	assert.Equal(t, 10000.0, before)
	assert.Zero(t, acct.TodayTrades)
	assert.Equal(t, 10000.0, acct.Balance)
}

func TestGovernorTradeCountMonotonic(t *testing.T) {
	cfg := scenarioConfig()
	cfg.MaxDailyTrades = 5
	cfg.DailyProfitGoal = 1e9
	g := NewGovernor(10000, newFakeClock(day0), nil)
	require.True(t, g.Start())

	prev := 0
	for i := 0; i < 20; i++ {
		ok, _ := g.Admit(cfg)
		if ok {
			g.Settle(filled(-10))
		}
		cur := g.Account().TodayTrades
		assert.GreaterOrEqual(t, cur, prev)
		assert.LessOrEqual(t, cur, cfg.MaxDailyTrades)
		prev = cur
	}
	assert.Equal(t, 5, prev)
	assert.Equal(t, models.StateHaltedForTradeLimit, g.State())
}

func TestGovernorResetRefusedWhileRunning(t *testing.T) {
	g := NewGovernor(10000, newFakeClock(day0), nil)
	require.True(t, g.Start())
	assert.Error(t, g.Reset(500))
	g.Stop()
	require.NoError(t, g.Reset(500))
	assert.Equal(t, 500.0, g.Account().StartingBalance)
}

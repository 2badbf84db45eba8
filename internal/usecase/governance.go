package usecase

import (
	"fmt"
	"sync/atomic"
	"time"

	"ConsensusBot/internal/domain/models"
	"ConsensusBot/pkg/util"
)

// Halt reasons carried by governance events.
const (
	ReasonDailyGoal  = "daily_profit_goal_reached"
	ReasonTradeLimit = "daily_trade_limit_reached"
)

// Governor owns the account and the engine state machine.
//
// The account is written only by the scan loop (Check, Settle, Reset); other goroutines
// read the last published copy through Account. State transitions use compare-and-swap
// so Start/Stop are safe from any goroutine.
type Governor struct {
	state atomic.Int32
	acct  models.AccountState
	view  atomic.Pointer[models.AccountState]
	clock Clock
	loc   *time.Location

	onRollover func(models.AccountState)
}

func NewGovernor(startingBalance float64, clock Clock, loc *time.Location) *Governor {
	if clock == nil {
		clock = SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	g := &Governor{clock: clock, loc: loc}
	g.acct = models.AccountState{
		Balance:         startingBalance,
		StartingBalance: startingBalance,
		Day:             util.DayKey(clock.Now(), loc),
	}
	g.publish()
	return g
}

func (g *Governor) State() models.EngineState { return models.EngineState(g.state.Load()) }

func (g *Governor) Running() bool { return g.State() == models.StateRunning }

// Start moves Stopped to Running; it reports false when the engine was not stopped.
func (g *Governor) Start() bool {
	return g.state.CompareAndSwap(int32(models.StateStopped), int32(models.StateRunning))
}

// Stop moves Running to Stopped; it reports false when the engine was not running.
func (g *Governor) Stop() bool {
	return g.state.CompareAndSwap(int32(models.StateRunning), int32(models.StateStopped))
}

// Finish completes a halt by moving a halted state to Stopped.
func (g *Governor) Finish() {
	for _, s := range []models.EngineState{models.StateHaltedForDailyGoal, models.StateHaltedForTradeLimit} {
		if g.state.CompareAndSwap(int32(s), int32(models.StateStopped)) {
			return
		}
	}
}

// Account returns the last published account copy.
func (g *Governor) Account() models.AccountState { return *g.view.Load() }

// OnRollover registers fn to run with the reset account whenever the trading day changes.
// It runs on the scan loop goroutine.
func (g *Governor) OnRollover(fn func(models.AccountState)) { g.onRollover = fn }

// Rollover resets daily counters when the calendar day in the configured zone changed.
// It reports whether a reset happened.
func (g *Governor) Rollover() bool {
	day := util.DayKey(g.clock.Now(), g.loc)
	if day == g.acct.Day {
		return false
	}
	g.acct.Day = day
	g.acct.TodayProfit = 0
	g.acct.TodayTrades = 0
	g.publish()
	if g.onRollover != nil {
		g.onRollover(g.acct)
	}
	return true
}

// Check runs the governance rules in order: day rollover, daily profit goal, trade count.
// When a limit is reached while running, the state moves to the matching halt state and
// the halt is returned. It does nothing when the engine is not running.
func (g *Governor) Check(cfg models.EngineConfig) *models.HaltEvent {
	g.Rollover()
	if !g.Running() {
		return nil
	}

	var (
		next   models.EngineState
		reason string
	)
	switch {
	case g.acct.TodayProfit >= cfg.DailyProfitGoal:
		next, reason = models.StateHaltedForDailyGoal, ReasonDailyGoal
	case g.acct.TodayTrades >= cfg.MaxDailyTrades:
		next, reason = models.StateHaltedForTradeLimit, ReasonTradeLimit
	default:
		return nil
	}
	if !g.state.CompareAndSwap(int32(models.StateRunning), int32(next)) {
		return nil
	}
	return &models.HaltEvent{
		State:       next,
		Reason:      reason,
		TodayProfit: g.acct.TodayProfit,
		TodayTrades: g.acct.TodayTrades,
	}
}

// Admit decides whether a sized signal may proceed. Signals are discarded (false, nil)
// when the engine is not running.
func (g *Governor) Admit(cfg models.EngineConfig) (bool, *models.HaltEvent) {
	if !g.Running() {
		return false, nil
	}
	if h := g.Check(cfg); h != nil {
		return false, h
	}
	return g.Running(), nil
}

// Settle applies a venue outcome to the account. Unfilled outcomes change nothing.
// It returns the balance before the trade and the updated account.
func (g *Governor) Settle(out models.TradeOutcome) (float64, models.AccountState) {
	before := g.acct.Balance
	if !out.Filled {
		return before, g.acct
	}
	g.acct.Balance += out.RealizedPnL
	g.acct.TotalProfit += out.RealizedPnL
	g.acct.TodayProfit += out.RealizedPnL
	g.acct.TodayTrades++
	g.publish()
	return before, g.acct
}

// Reset replaces the balance; it is refused while the engine is running.
func (g *Governor) Reset(balance float64) error {
	if g.Running() {
		return fmt.Errorf("reset balance: %w", models.ErrAlreadyRunning)
	}
	g.acct.Balance = balance
	g.acct.StartingBalance = balance
	g.acct.TotalProfit = 0
	g.publish()
	return nil
}

func (g *Governor) publish() {
	a := g.acct
	g.view.Store(&a)
}

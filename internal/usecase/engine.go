package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ConsensusBot/internal/domain/models"
	drepo "ConsensusBot/internal/domain/repository"
	domsvc "ConsensusBot/internal/domain/service"
	"ConsensusBot/internal/services/consensus"
	"ConsensusBot/internal/services/indicators"
	"ConsensusBot/internal/services/regime"
	"ConsensusBot/internal/services/risk"
	"ConsensusBot/internal/services/strategy"
	"ConsensusBot/pkg/logger"
)

const (
	DefaultScanInterval  = 3 * time.Second
	DefaultSymbolDelay   = time.Second
	DefaultErrorBackoff  = 5 * time.Second
	DefaultHistoryBars   = 250
	DefaultRecentSignals = 10
	MaxRecentSignals     = 100
)

// Engine runs the scan loop for one account: indicators, evaluators, consensus,
// sizing, governance, execution and tracking, one symbol at a time.
type Engine struct {
	feed       drepo.QuoteFeed
	exec       *Executor
	gov        *Governor
	tracker    *Tracker
	classifier domsvc.PatternClassifier
	detector   domsvc.ConditionDetector
	metrics    drepo.Metrics
	log        *logger.Logger
	clock      Clock
	loc        *time.Location

	symbols      []string
	scanInterval time.Duration
	symbolDelay  time.Duration
	errorBackoff time.Duration
	historyBars  int
	startBalance float64
	created      time.Time

	cfgMu      sync.Mutex
	cfg        atomic.Pointer[models.EngineConfig]
	conditions atomic.Pointer[[]models.MarketCondition]
	lastHalt   atomic.Pointer[models.HaltEvent]
	lastCycle  atomic.Pointer[time.Time]
	events     *observerList[models.EngineEvent]

	// loop-only
	evalCfg  *models.EngineConfig
	evals    []domsvc.Evaluator
	belowMin bool

	sigMu   sync.Mutex
	signals []models.Signal

	mu     sync.Mutex
	alive  bool
	done   chan struct{}
	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

type EngineOption func(*Engine)

func WithClassifier(c domsvc.PatternClassifier) EngineOption {
	return func(e *Engine) { e.classifier = c }
}

func WithConditionDetector(d domsvc.ConditionDetector) EngineOption {
	return func(e *Engine) { e.detector = d }
}

func WithMetrics(m drepo.Metrics) EngineOption { return func(e *Engine) { e.metrics = m } }

func WithLogger(l *logger.Logger) EngineOption { return func(e *Engine) { e.log = l } }

func WithClock(c Clock) EngineOption { return func(e *Engine) { e.clock = c } }

// WithLocation sets the time zone that defines a trading day.
func WithLocation(loc *time.Location) EngineOption { return func(e *Engine) { e.loc = loc } }

func WithStartingBalance(b float64) EngineOption { return func(e *Engine) { e.startBalance = b } }

// WithCadence sets the pause between scans, between symbols, and after a failed scan.
func WithCadence(scan, symbol, backoff time.Duration) EngineOption {
	return func(e *Engine) {
		e.scanInterval, e.symbolDelay, e.errorBackoff = scan, symbol, backoff
	}
}

func WithHistoryBars(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.historyBars = n
		}
	}
}

// NewEngine validates cfg and builds a stopped engine.
func NewEngine(cfg models.EngineConfig, feed drepo.QuoteFeed, venue drepo.ExecutionVenue, symbols []string, opts ...EngineOption) (*Engine, error) {
	if err := ValidateEngineConfig(cfg); err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return nil, &models.ConfigError{Field: "symbols", Reason: "at least one symbol is required"}
	}
	e := &Engine{
		feed:         feed,
		symbols:      append([]string(nil), symbols...),
		scanInterval: DefaultScanInterval,
		symbolDelay:  DefaultSymbolDelay,
		errorBackoff: DefaultErrorBackoff,
		historyBars:  DefaultHistoryBars,
		startBalance: 10000,
		wake:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.NewNop()
	}
	if e.metrics == nil {
		e.metrics = nopMetrics{}
	}
	if e.clock == nil {
		e.clock = SystemClock{}
	}
	if e.detector == nil {
		e.detector = regime.NewDetector()
	}
	if e.classifier == nil {
		e.classifier = strategy.NewRuleClassifier()
	}

	c := cfg.Clone()
	e.cfg.Store(&c)
	e.created = e.clock.Now()
	e.gov = NewGovernor(e.startBalance, e.clock, e.loc)
	e.tracker = NewTracker(e.log)
	e.tracker.Refresh(e.gov.Account(), c.MaxDailyTrades)
	e.gov.OnRollover(e.rolledOver)
	e.exec = NewExecutor(venue, e.metrics, e.log)
	e.events = newObserverList[models.EngineEvent]("events", e.log)
	e.ctx, e.cancel = context.WithCancel(context.Background())
	return e, nil
}

// Config returns a copy of the active configuration.
func (e *Engine) Config() models.EngineConfig { return e.cfg.Load().Clone() }

// UpdateConfig merges patch into the active configuration. The result applies from the
// next cycle; an invalid result is rejected with *models.ConfigError and nothing changes.
// Concurrent updates are applied one after another, each on top of the previous result.
func (e *Engine) UpdateConfig(patch models.ConfigPatch) (models.EngineConfig, error) {
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()
	next := patch.Apply(*e.cfg.Load())
	if err := ValidateEngineConfig(next); err != nil {
		return e.Config(), err
	}
	e.cfg.Store(&next)
	e.log.Info("engine config updated",
		logger.Float64("daily_profit_goal", next.DailyProfitGoal),
		logger.Int("max_daily_trades", next.MaxDailyTrades),
	)
	return next.Clone(), nil
}

func (e *Engine) State() models.EngineState { return e.gov.State() }

func (e *Engine) Account() models.AccountState { return e.gov.Account() }

func (e *Engine) Performance() models.PerformanceSnapshot { return e.tracker.Snapshot() }

func (e *Engine) Symbols() []string { return append([]string(nil), e.symbols...) }

// Subscribe registers a performance observer; the returned func unsubscribes it.
func (e *Engine) Subscribe(fn func(models.PerformanceSnapshot)) func() {
	return e.tracker.Subscribe(fn)
}

// SubscribeEvents registers an observer for snapshot, trade, halt and error events.
func (e *Engine) SubscribeEvents(fn func(models.EngineEvent)) func() {
	return e.events.add(fn)
}

// Activate moves the engine to Running without starting the background loop.
// Callers then drive cycles with RunCycle.
func (e *Engine) Activate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activateLocked()
}

func (e *Engine) activateLocked() error {
	if e.ctx.Err() != nil {
		return models.ErrEngineClosed
	}
	if !e.gov.Start() {
		return models.ErrAlreadyRunning
	}
	e.lastHalt.Store(nil)
	e.metrics.SetState(models.StateRunning)
	e.log.Info("engine started", logger.Strings("symbols", e.symbols))
	return nil
}

// Start activates the engine and runs the scan loop in the background.
// Starting after a halt on the same day does not reset the daily counters.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.activateLocked(); err != nil {
		return err
	}
	if !e.alive {
		e.alive = true
		e.done = make(chan struct{})
		go e.loop()
	}
	return nil
}

// Stop asks the loop to exit at the next symbol boundary; it never interrupts a trade.
func (e *Engine) Stop() {
	if e.gov.Stop() {
		e.metrics.SetState(models.StateStopped)
		e.log.Info("engine stopped")
	}
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Done is closed when the background loop has exited.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return e.done
}

// Close stops the engine permanently and waits for the loop to exit.
func (e *Engine) Close(ctx context.Context) error {
	e.Stop()
	e.cancel()
	select {
	case <-e.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetBalance resets the account and trade history; refused while running.
func (e *Engine) SetBalance(b float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.alive {
		return fmt.Errorf("set balance: %w", models.ErrAlreadyRunning)
	}
	if err := e.gov.Reset(b); err != nil {
		return err
	}
	e.tracker.Reset(e.gov.Account(), e.cfg.Load().MaxDailyTrades)
	return nil
}

func (e *Engine) loop() {
	for {
		if e.ctx.Err() != nil {
			e.gov.Stop()
		}
		if !e.gov.Running() {
			e.mu.Lock()
			if e.gov.Running() && e.ctx.Err() == nil {
				e.mu.Unlock()
				continue
			}
			e.alive = false
			close(e.done)
			e.mu.Unlock()
			return
		}

		wait := e.scanInterval
		if err := e.RunCycle(e.ctx); err != nil && e.ctx.Err() == nil {
			e.log.Error("scan cycle failed", logger.Error(err), logger.Duration("backoff_ms", e.errorBackoff))
			e.metrics.RecordError("cycle")
			e.emit(models.EngineEvent{Kind: models.EventError, Err: err, Message: err.Error()})
			wait = e.errorBackoff
		}
		if e.gov.Running() {
			e.sleep(e.ctx, wait)
		}
	}
}

// sleep waits for d, a Stop, or ctx; it reports false when ctx ended.
func (e *Engine) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-e.wake:
		return true
	case <-t.C:
		return true
	}
}

// rolledOver republishes the day-scoped performance fields after the governor reset them.
func (e *Engine) rolledOver(acct models.AccountState) {
	e.tracker.Refresh(acct, e.cfg.Load().MaxDailyTrades)
	e.metrics.SetAccount(acct.Balance, acct.TodayProfit, acct.TodayTrades)
	e.log.Info("trading day rolled over", logger.String("day", acct.Day))
}

// RunCycle scans every configured symbol once. The configuration is read once per cycle.
// It returns an error only when every symbol failed or ctx ended.
func (e *Engine) RunCycle(ctx context.Context) error {
	cfg := e.cfg.Load()
	evals := e.evaluators(cfg)

	if h := e.gov.Check(*cfg); h != nil {
		e.halt(h)
		return nil
	}

	failed := 0
	for i, sym := range e.symbols {
		if i > 0 && !e.sleep(ctx, e.symbolDelay) {
			return ctx.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !e.gov.Running() {
			return nil
		}
		halted, err := e.processSymbol(ctx, *cfg, evals, sym)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			e.reportError(sym, err)
		}
		if halted {
			return nil
		}
	}

	now := e.clock.Now()
	e.lastCycle.Store(&now)
	if failed > 0 && failed == len(e.symbols) {
		return fmt.Errorf("scan cycle: all %d symbols failed", failed)
	}
	return nil
}

// evaluators rebuilds the evaluator set when the configuration was swapped.
func (e *Engine) evaluators(cfg *models.EngineConfig) []domsvc.Evaluator {
	if cfg == e.evalCfg {
		return e.evals
	}
	evals, skipped := strategy.Build(*cfg, e.classifier)
	for _, name := range skipped {
		e.log.Warn("unknown strategy ignored", logger.String("strategy", name))
	}
	e.evalCfg, e.evals = cfg, evals
	return evals
}

func (e *Engine) processSymbol(ctx context.Context, cfg models.EngineConfig, evals []domsvc.Evaluator, sym string) (bool, error) {
	start := time.Now()
	defer func() { e.metrics.RecordLatency("symbol", time.Since(start).Seconds()) }()

	snap, err := e.snapshot(ctx, sym)
	if err != nil {
		return false, err
	}
	e.metrics.RecordLastPrice(sym, snap.Price)
	conds := e.detector.Detect(snap, cfg.MarketConditions)
	e.conditions.Store(&conds)

	cands := make([]models.Signal, 0, len(evals))
	for _, ev := range evals {
		sig, err := ev.Evaluate(ctx, snap)
		if err != nil {
			e.metrics.RecordError("strategy")
			e.log.Warn("evaluator failed", logger.String("strategy", ev.Name()), logger.String("symbol", sym), logger.Error(err))
			e.emit(models.EngineEvent{Kind: models.EventError, Symbol: sym, Err: err, Message: err.Error()})
			continue
		}
		if sig == nil {
			continue
		}
		e.metrics.RecordCandidate(sig.Strategy, sig.Action)
		cands = append(cands, *sig)
	}

	final := consensus.Combine(cands, cfg.Weights())
	if final == nil {
		return false, nil
	}
	final.Symbol = sym
	e.remember(*final)
	e.metrics.RecordSignal(sym, final.Action)
	e.log.Info("consensus signal",
		logger.String("symbol", sym),
		logger.String("action", string(final.Action)),
		logger.Float64("confidence", final.Confidence),
		logger.Int("candidates", len(cands)),
	)
	return e.trade(ctx, cfg, snap, *final)
}

func (e *Engine) snapshot(ctx context.Context, sym string) (models.IndicatorSnapshot, error) {
	sample, err := e.feed.Sample(ctx, sym)
	if err != nil {
		return models.IndicatorSnapshot{}, &models.IndicatorError{Symbol: sym, Err: fmt.Errorf("%w: sample: %w", models.ErrInsufficientData, err)}
	}
	hist, err := e.feed.History(ctx, sym, e.historyBars)
	if err != nil {
		return models.IndicatorSnapshot{}, &models.IndicatorError{Symbol: sym, Err: fmt.Errorf("%w: history: %w", models.ErrInsufficientData, err)}
	}
	return indicators.Compute(sym, sample, hist)
}

func (e *Engine) trade(ctx context.Context, cfg models.EngineConfig, snap models.IndicatorSnapshot, sig models.Signal) (bool, error) {
	ok, h := e.gov.Admit(cfg)
	if h != nil {
		e.halt(h)
		return true, nil
	}
	if !ok {
		e.log.Debug("signal discarded", logger.String("symbol", sig.Symbol), logger.String("state", e.gov.State().String()))
		return false, nil
	}

	size := risk.Size(sig, e.gov.Account(), cfg, e.tracker.Snapshot())
	if size <= 0 {
		e.log.Debug("position size rejected", logger.String("symbol", sig.Symbol))
		return false, nil
	}
	target, stop := risk.Targets(sig.Action, snap.Price, cfg)
	order := models.Order{
		ID:          uuid.NewString(),
		Symbol:      sig.Symbol,
		Action:      sig.Action,
		Size:        size,
		EntryPrice:  snap.Price,
		TargetPrice: target,
		StopPrice:   stop,
		Confidence:  sig.Confidence,
		Strategy:    sig.Strategy,
		CreatedAt:   e.clock.Now(),
	}

	out, err := e.exec.Execute(ctx, order)
	if err != nil {
		return false, err
	}
	if !out.Filled {
		e.log.Info("order not filled", logger.String("order_id", order.ID), logger.String("symbol", order.Symbol))
		return false, nil
	}

	before, acct := e.gov.Settle(out)
	rec := models.NewTradeRecord(order, out, acct.Balance, e.clock.Now())
	perf := e.tracker.Record(rec, before, acct, cfg.MaxDailyTrades)
	e.metrics.RecordTrade(rec.Symbol, rec.RealizedPnL)
	e.metrics.SetAccount(acct.Balance, acct.TodayProfit, acct.TodayTrades)
	e.log.Info("trade settled",
		logger.String("order_id", rec.OrderID),
		logger.String("symbol", rec.Symbol),
		logger.Float64("pnl", rec.RealizedPnL),
		logger.Float64("balance", acct.Balance),
		logger.Int("today_trades", acct.TodayTrades),
	)
	e.emit(models.EngineEvent{Kind: models.EventTrade, Symbol: rec.Symbol, Trade: &rec, Timestamp: rec.SettledAt})
	e.emit(models.EngineEvent{Kind: models.EventSnapshot, Snapshot: &perf, Timestamp: rec.SettledAt})
	e.watchWinRate(cfg, perf)

	if h := e.gov.Check(cfg); h != nil {
		e.halt(h)
		return true, nil
	}
	return false, nil
}

// watchWinRate warns once each time the observed win rate drops below the configured minimum.
func (e *Engine) watchWinRate(cfg models.EngineConfig, perf models.PerformanceSnapshot) {
	below := perf.TotalTrades >= cfg.MinWinRateSample && perf.WinRate < cfg.MinWinRate
	if below && !e.belowMin {
		e.log.Warn("win rate below minimum",
			logger.Float64("win_rate", perf.WinRate),
			logger.Float64("min_win_rate", cfg.MinWinRate),
			logger.Int("trades", perf.TotalTrades),
		)
		e.emit(models.EngineEvent{
			Kind:     models.EventError,
			Err:      models.ErrWinRateBelowMin,
			Message:  models.ErrWinRateBelowMin.Error(),
			Snapshot: &perf,
		})
	}
	e.belowMin = below
}

func (e *Engine) halt(h *models.HaltEvent) {
	e.lastHalt.Store(h)
	e.metrics.SetState(h.State)
	e.log.Info("governance halt",
		logger.String("reason", h.Reason),
		logger.Float64("today_profit", h.TodayProfit),
		logger.Int("today_trades", h.TodayTrades),
	)
	e.emit(models.EngineEvent{Kind: models.EventHalt, Halt: h, Message: h.Reason})
	e.gov.Finish()
	e.metrics.SetState(models.StateStopped)
}

func (e *Engine) reportError(sym string, err error) {
	kind := "engine"
	var ie *models.IndicatorError
	var xe *models.ExecutionError
	switch {
	case errors.As(err, &ie):
		kind = "indicator"
	case errors.As(err, &xe):
		kind = "execution"
	}
	e.metrics.RecordError(kind)
	e.log.Warn("symbol skipped", logger.String("symbol", sym), logger.String("kind", kind), logger.Error(err))
	e.emit(models.EngineEvent{Kind: models.EventError, Symbol: sym, Err: err, Message: err.Error()})
}

func (e *Engine) emit(ev models.EngineEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = e.clock.Now()
	}
	e.events.notify(ev)
}

func (e *Engine) remember(sig models.Signal) {
	e.sigMu.Lock()
	defer e.sigMu.Unlock()
	e.signals = append(e.signals, sig)
	if over := len(e.signals) - MaxRecentSignals; over > 0 {
		e.signals = append([]models.Signal(nil), e.signals[over:]...)
	}
}

// RecentSignals returns up to n of the latest final signals, oldest first.
func (e *Engine) RecentSignals(n int) []models.Signal {
	if n <= 0 {
		n = DefaultRecentSignals
	}
	e.sigMu.Lock()
	defer e.sigMu.Unlock()
	if n > len(e.signals) {
		n = len(e.signals)
	}
	return append([]models.Signal(nil), e.signals[len(e.signals)-n:]...)
}

// MarketConditions returns the conditions scored for the most recently scanned symbol.
func (e *Engine) MarketConditions() []models.MarketCondition {
	if c := e.conditions.Load(); c != nil {
		return append([]models.MarketCondition(nil), (*c)...)
	}
	return append([]models.MarketCondition(nil), e.cfg.Load().MarketConditions...)
}

// Status is the control-plane view used by the HTTP API.
func (e *Engine) Status() models.EngineStatus {
	st := models.EngineStatus{
		State:    e.gov.State().String(),
		LastHalt: e.lastHalt.Load(),
		Account:  e.gov.Account(),
		Symbols:  e.Symbols(),
	}
	if t := e.lastCycle.Load(); t != nil {
		st.LastCycle = t.Format(time.RFC3339)
	}
	return st
}

// DetailedStats combines performance with account, strategy and regime context.
func (e *Engine) DetailedStats() models.DetailedStats {
	cfg := e.cfg.Load()
	acct := e.gov.Account()
	perf := e.tracker.Snapshot()

	roi := 0.0
	if acct.StartingBalance > 0 {
		roi = (acct.Balance - acct.StartingBalance) / acct.StartingBalance * 100
	}
	days := math.Max(1, math.Ceil(e.clock.Now().Sub(e.created).Hours()/24))

	strategies := make([]models.StrategySummary, 0, len(cfg.Strategies))
	for _, s := range cfg.Strategies {
		strategies = append(strategies, models.StrategySummary{Name: s.Name, Weight: s.Weight, Enabled: s.Enabled})
	}
	return models.DetailedStats{
		Performance:      perf,
		Balance:          acct.Balance,
		ROI:              roi,
		DailyAverage:     acct.TotalProfit / days,
		State:            e.gov.State().String(),
		Strategies:       strategies,
		MarketConditions: e.MarketConditions(),
	}
}

type nopMetrics struct{}

func (nopMetrics) RecordCandidate(string, models.Action) {}
func (nopMetrics) RecordSignal(string, models.Action)    {}
func (nopMetrics) RecordTrade(string, float64)           {}
func (nopMetrics) RecordError(string)                    {}
func (nopMetrics) RecordLastPrice(string, float64)       {}
func (nopMetrics) RecordLatency(string, float64)         {}
func (nopMetrics) SetAccount(float64, float64, int)      {}
func (nopMetrics) SetState(models.EngineState)           {}

var _ drepo.Metrics = nopMetrics{}

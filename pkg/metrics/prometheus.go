package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ConsensusBot/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	candidates  *prometheus.CounterVec
	signals     *prometheus.CounterVec
	trades      *prometheus.CounterVec
	pnl         *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
	balance     prometheus.Gauge
	todayProfit prometheus.Gauge
	todayTrades prometheus.Gauge
	state       prometheus.Gauge
}

// New creates a recorder registered on reg; nil means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		candidates: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consensusbot_candidate_signals_total",
				Help: "Candidate signals emitted by each strategy",
			},
			[]string{"strategy", "action"},
		),
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consensusbot_consensus_signals_total",
				Help: "Final consensus signals",
			},
			[]string{"symbol", "action"},
		),
		trades: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consensusbot_trades_total",
				Help: "Settled trades by result",
			},
			[]string{"symbol", "result"},
		),
		pnl: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consensusbot_realized_pnl_abs_total",
				Help: "Absolute realized profit and loss by direction",
			},
			[]string{"symbol", "result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consensusbot_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "consensusbot_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "consensusbot_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		balance: f.NewGauge(prometheus.GaugeOpts{
			Name: "consensusbot_account_balance",
			Help: "Current account balance",
		}),
		todayProfit: f.NewGauge(prometheus.GaugeOpts{
			Name: "consensusbot_today_profit",
			Help: "Realized profit for the current trading day",
		}),
		todayTrades: f.NewGauge(prometheus.GaugeOpts{
			Name: "consensusbot_today_trades",
			Help: "Trades executed on the current trading day",
		}),
		state: f.NewGauge(prometheus.GaugeOpts{
			Name: "consensusbot_engine_state",
			Help: "Engine state (0 stopped, 1 running, 2 halted daily goal, 3 halted trade limit)",
		}),
	}
}

func (r *Recorder) RecordCandidate(strategy string, action models.Action) {
	r.candidates.WithLabelValues(strategy, string(action)).Inc()
}

func (r *Recorder) RecordSignal(symbol string, action models.Action) {
	r.signals.WithLabelValues(symbol, string(action)).Inc()
}

// RecordTrade counts a settled trade as a win when pnl > 0.
func (r *Recorder) RecordTrade(symbol string, pnl float64) {
	result := "loss"
	if pnl > 0 {
		result = "win"
	}
	r.trades.WithLabelValues(symbol, result).Inc()
	if pnl < 0 {
		pnl = -pnl
	}
	r.pnl.WithLabelValues(symbol, result).Add(pnl)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) SetAccount(balance, todayProfit float64, todayTrades int) {
	r.balance.Set(balance)
	r.todayProfit.Set(todayProfit)
	r.todayTrades.Set(float64(todayTrades))
}

func (r *Recorder) SetState(state models.EngineState) {
	r.state.Set(float64(state))
}

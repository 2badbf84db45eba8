package repository

import (
	"context"
	"time"

	"ConsensusBot/internal/domain/models"
)

// QuoteFeed supplies the latest sample and recent bar history per symbol.
type QuoteFeed interface {
	Sample(ctx context.Context, symbol string) (models.Sample, error)
	History(ctx context.Context, symbol string, n int) ([]models.Candle, error)
}

// MarketStream is a push source of raw ticks (e.g. an exchange websocket).
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Sample, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// ExecutionVenue accepts sized orders and reports their outcome.
type ExecutionVenue interface {
	SubmitOrder(ctx context.Context, order models.Order) (models.TradeOutcome, error)
}

// TradeJournal persists settled trades.
type TradeJournal interface {
	Init(ctx context.Context) error // ensure tables
	Record(ctx context.Context, t models.TradeRecord) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.TradeRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// EventPublisher fans engine events out to an external bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev models.EngineEvent) error
	Close() error
}

// SnapshotStore keeps the latest dashboard views outside the process.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap models.PerformanceSnapshot) error
	LatestSnapshot(ctx context.Context) (models.PerformanceSnapshot, bool, error)
	SaveSignals(ctx context.Context, signals []models.Signal) error
	RecentSignals(ctx context.Context) ([]models.Signal, error)
}

type Metrics interface {
	RecordCandidate(strategy string, action models.Action)
	RecordSignal(symbol string, action models.Action)
	RecordTrade(symbol string, pnl float64)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	SetAccount(balance, todayProfit float64, todayTrades int)
	SetState(state models.EngineState)
}

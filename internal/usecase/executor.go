package usecase

import (
	"context"
	"time"

	"ConsensusBot/internal/domain/models"
	drepo "ConsensusBot/internal/domain/repository"
	"ConsensusBot/pkg/logger"
)

// Executor submits orders to a venue, retrying once immediately on failure.
type Executor struct {
	venue   drepo.ExecutionVenue
	metrics drepo.Metrics
	log     *logger.Logger
}

func NewExecutor(venue drepo.ExecutionVenue, metrics drepo.Metrics, log *logger.Logger) *Executor {
	return &Executor{venue: venue, metrics: metrics, log: log}
}

// Execute returns the venue outcome or an *models.ExecutionError after two failed attempts.
func (x *Executor) Execute(ctx context.Context, order models.Order) (models.TradeOutcome, error) {
	start := time.Now()
	defer func() { x.metrics.RecordLatency("execute", time.Since(start).Seconds()) }()

	attempts := 0
	var err error
	for attempts < 2 {
		attempts++
		var out models.TradeOutcome
		out, err = x.venue.SubmitOrder(ctx, order)
		if err == nil {
			if out.OrderID == "" {
				out.OrderID = order.ID
			}
			return out, nil
		}
		x.log.Warn("order submission failed",
			logger.String("order_id", order.ID),
			logger.String("symbol", order.Symbol),
			logger.Int("attempt", attempts),
			logger.Error(err),
		)
		if ctx.Err() != nil {
			break
		}
	}
	x.metrics.RecordError("execution")
	return models.TradeOutcome{OrderID: order.ID}, &models.ExecutionError{
		OrderID:  order.ID,
		Symbol:   order.Symbol,
		Attempts: attempts,
		Err:      err,
	}
}

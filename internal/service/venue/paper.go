package venue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ConsensusBot/internal/domain/models"
	drepo "ConsensusBot/internal/domain/repository"
)

const defaultMaxSteps = 10000

// Paper fills at the order's entry price and then follows the feed until the
// target or stop is crossed or the position has been held for MaxHold.
type Paper struct {
	feed     drepo.QuoteFeed
	poll     time.Duration
	maxHold  time.Duration
	maxSteps int
}

var _ drepo.ExecutionVenue = (*Paper)(nil)

type PaperOption func(*Paper)

// WithPoll sets the wait between price checks. Zero walks the feed without waiting.
func WithPoll(d time.Duration) PaperOption { return func(p *Paper) { p.poll = d } }

// WithMaxHold closes the position at market once it has been open for d.
func WithMaxHold(d time.Duration) PaperOption { return func(p *Paper) { p.maxHold = d } }

// WithMaxSteps bounds the number of price checks per order.
func WithMaxSteps(n int) PaperOption {
	return func(p *Paper) {
		if n > 0 {
			p.maxSteps = n
		}
	}
}

func NewPaper(feed drepo.QuoteFeed, opts ...PaperOption) *Paper {
	p := &Paper{feed: feed, maxHold: 15 * time.Minute, maxSteps: defaultMaxSteps}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Paper) SubmitOrder(ctx context.Context, o models.Order) (models.TradeOutcome, error) {
	if o.EntryPrice <= 0 || o.Size <= 0 {
		return models.TradeOutcome{}, fmt.Errorf("paper order %s: %w", o.ID, models.ErrOrderRejected)
	}
	exit := o.EntryPrice
	opened := o.CreatedAt

	for step := 0; step < p.maxSteps; step++ {
		if p.poll > 0 {
			select {
			case <-time.After(p.poll):
			case <-ctx.Done():
				return models.TradeOutcome{}, ctx.Err()
			}
		} else if err := ctx.Err(); err != nil {
			return models.TradeOutcome{}, err
		}

		s, err := p.feed.Sample(ctx, o.Symbol)
		if errors.Is(err, models.ErrFeedExhausted) {
			break
		}
		if err != nil {
			continue
		}
		exit = s.Price
		if opened.IsZero() {
			opened = s.Timestamp
		}
		if crossed(o, s.Price) || (p.maxHold > 0 && s.Timestamp.Sub(opened) >= p.maxHold) {
			break
		}
	}

	return models.TradeOutcome{
		OrderID:     o.ID,
		Filled:      true,
		FillPrice:   o.EntryPrice,
		ExitPrice:   exit,
		RealizedPnL: PnL(o.Action, o.Size, o.EntryPrice, exit),
	}, nil
}

func crossed(o models.Order, price float64) bool {
	if o.Action == models.Sell {
		return price <= o.TargetPrice || price >= o.StopPrice
	}
	return price >= o.TargetPrice || price <= o.StopPrice
}

// PnL is size·(exit−entry)/entry, negated for sells.
func PnL(action models.Action, size, entry, exit float64) float64 {
	if entry <= 0 {
		return 0
	}
	pnl := size * (exit - entry) / entry
	if action == models.Sell {
		return -pnl
	}
	return pnl
}

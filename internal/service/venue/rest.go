package venue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"ConsensusBot/internal/domain/models"
	drepo "ConsensusBot/internal/domain/repository"
	"ConsensusBot/internal/service/ratelimit"
	xhttp "ConsensusBot/pkg/http"
)

// RESTConfig configures the HTTP execution venue.
type RESTConfig struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	RPS             float64
	Burst           int
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// REST submits orders to an HTTP broker at POST {base}/orders.
type REST struct {
	base    string
	apiKey  string
	client  *xhttp.Client
	limiter *ratelimit.Limiter
	cb      *gobreaker.CircuitBreaker
}

var _ drepo.ExecutionVenue = (*REST)(nil)

func NewREST(cfg RESTConfig) (*REST, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("rest venue: base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	failures := cfg.BreakerFailures
	st := gobreaker.Settings{
		Name:    "rest-venue",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		// rejected orders say nothing about venue health
		IsSuccessful: func(err error) bool {
			var se *xhttp.StatusError
			return err == nil || (errors.As(err, &se) && !se.Temporary())
		},
	}
	return &REST{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		limiter: ratelimit.New(cfg.RPS, cfg.Burst),
		cb:      gobreaker.NewCircuitBreaker(st),
	}, nil
}

// State exposes the breaker state for health reporting.
func (v *REST) State() string { return v.cb.State().String() }

func (v *REST) SubmitOrder(ctx context.Context, o models.Order) (models.TradeOutcome, error) {
	if err := v.limiter.Wait(ctx, "orders"); err != nil {
		return models.TradeOutcome{}, fmt.Errorf("rate limit: %w", err)
	}
	res, err := v.cb.Execute(func() (any, error) {
		var out models.TradeOutcome
		err := v.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    v.base + "/orders",
			Headers: map[string]string{
				"Content-Type": "application/json",
				"X-API-Key":    v.apiKey,
			},
			Body: o,
		}, &out)
		return out, err
	})
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return models.TradeOutcome{}, fmt.Errorf("submit %s: %w: %w", o.ID, models.ErrOrderRejected, err)
		}
		return models.TradeOutcome{}, fmt.Errorf("submit %s: %w", o.ID, err)
	}
	out := res.(models.TradeOutcome)
	if out.OrderID == "" {
		out.OrderID = o.ID
	}
	return out, nil
}

package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ConsensusBot/internal/service/metrics"
	xhttp "ConsensusBot/pkg/http"
)

// HTTPServiceBase is the shared JSON-over-HTTP client for the analytics service.
type HTTPServiceBase struct {
	baseURL string
	client  *xhttp.Client
}

func NewHTTPServiceBase(baseURL string, timeout time.Duration) *HTTPServiceBase {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPServiceBase{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// PostJSON posts payload to path under baseURL and decodes the JSON reply into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload, dest any) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("analytics http client not initialized")
	}
	start := time.Now()
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     b.baseURL + path,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    payload,
	}, dest)
	metrics.AnalyticsLatency.WithLabelValues(path).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AnalyticsErrors.WithLabelValues(path).Inc()
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

// PostJSONWithRetry retries transient failures up to attempts times with a linear backoff.
func (b *HTTPServiceBase) PostJSONWithRetry(ctx context.Context, path string, payload, dest any, attempts int) error {
	var err error
	for i := 1; i <= max(1, attempts); i++ {
		if err = b.PostJSON(ctx, path, payload, dest); err == nil {
			return nil
		}
		var se *xhttp.StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return err
		}
		if i == attempts {
			break
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ConsensusBot/internal/domain/models"
	domrepo "ConsensusBot/internal/domain/repository"
	"ConsensusBot/internal/service/ratelimit"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, s *models.Sample) error
}

// ProcFunc adapts a function to Proc.
type ProcFunc func(ctx context.Context, s *models.Sample) error

func (f ProcFunc) Process(ctx context.Context, s *models.Sample) error { return f(ctx, s) }

// RealtimePipeline sits between the tick stream and the bar aggregator.
// It validates, throttles per symbol, optionally transforms, and buffers
// samples while downstream is failing.
type RealtimePipeline struct {
	proc      Proc
	metrics   domrepo.Metrics
	limiter   *ratelimit.Limiter
	maxRPS    float64
	bufCh     chan *models.Sample
	stopCh    chan struct{}
	started   bool
	mu        sync.Mutex
	transform func(*models.Sample) *models.Sample
}

type PipelineOption func(*RealtimePipeline)

// WithMaxRPS sets the max samples per second per symbol.
func WithMaxRPS(n float64) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the retry buffer used while downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufCh = make(chan *models.Sample, n)
		}
	}
}

// WithTransform sets a hook that rewrites samples before forwarding.
func WithTransform(fn func(*models.Sample) *models.Sample) PipelineOption {
	return func(p *RealtimePipeline) { p.transform = fn }
}

// NewRealtimePipeline creates a new pipeline.
func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:    proc,
		metrics: metrics,
		maxRPS:  20,
		bufCh:   make(chan *models.Sample, 1000),
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.limiter = ratelimit.New(p.maxRPS, 1)
	return p
}

// Start launches background flushing of buffered samples.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.flush(ctx)
}

func (p *RealtimePipeline) flush(ctx context.Context) {
	backoff := 50 * time.Millisecond
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case s := <-p.bufCh:
			if err := p.proc.Process(ctx, s); err != nil {
				if backoff < 2*time.Second {
					backoff *= 2
				}
				p.metrics.RecordError("pipeline_flush")
				select {
				case <-time.After(backoff):
				case <-p.stopCh:
					return
				}
				// requeue if space; drop otherwise
				select {
				case p.bufCh <- s:
				default:
					p.metrics.RecordError("pipeline_buffer_drop")
				}
				continue
			}
			backoff = 50 * time.Millisecond
		}
	}
}

// Stop stops the background flushing.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	close(p.stopCh)
}

// Buffered returns the number of samples waiting for a retry.
func (p *RealtimePipeline) Buffered() int { return len(p.bufCh) }

// Process validates, throttles and forwards s, buffering it on downstream errors.
// Throttled samples are dropped without error.
func (p *RealtimePipeline) Process(ctx context.Context, s *models.Sample) error {
	start := time.Now()
	if err := validateSample(s); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		s = p.transform(s)
		if err := validateSample(s); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.limiter.Allow(s.Symbol) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, s); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- s:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateSample(s *models.Sample) error {
	switch {
	case s == nil:
		return fmt.Errorf("sample nil: %w", models.ErrInvalidSample)
	case s.Symbol == "":
		return fmt.Errorf("symbol empty: %w", models.ErrInvalidSample)
	case s.Timestamp.IsZero():
		return fmt.Errorf("timestamp missing: %w", models.ErrInvalidSample)
	case s.Price <= 0 || s.Volume < 0:
		return fmt.Errorf("bad price/volume: %w", models.ErrInvalidSample)
	}
	return nil
}

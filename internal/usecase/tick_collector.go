package usecase

import (
	"context"
	"sync/atomic"

	"ConsensusBot/internal/domain/models"
	drepo "ConsensusBot/internal/domain/repository"
	mid "ConsensusBot/internal/middleware"
	"ConsensusBot/pkg/logger"
)

// TickCollector reads ticks from a market stream and pushes them through the
// realtime pipeline into the live feed.
type TickCollector struct {
	stream  drepo.MarketStream
	pipe    *mid.RealtimePipeline
	metrics drepo.Metrics
	log     *logger.Logger
	done    chan struct{}
	stopped atomic.Bool
}

func NewTickCollector(stream drepo.MarketStream, pipe *mid.RealtimePipeline, metrics drepo.Metrics, log *logger.Logger) *TickCollector {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &TickCollector{stream: stream, pipe: pipe, metrics: metrics, log: log.With("tick_collector")}
}

// IsConnected returns true if the market stream is connected.
func (c *TickCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *TickCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	c.pipe.Start(ctx)
	c.done = make(chan struct{})
	go c.run(ctx)
	return nil
}

func (c *TickCollector) run(ctx context.Context) {
	defer close(c.done)
	for ctx.Err() == nil && !c.stopped.Load() {
		samples, errs := c.stream.Read(ctx)
		c.consume(ctx, samples, errs)
		if ctx.Err() != nil || c.stopped.Load() {
			return
		}
		c.metrics.RecordError("stream")
		if err := c.stream.Reconnect(ctx); err != nil {
			c.log.Warn("reconnect failed", logger.Error(err))
		}
	}
}

// consume drains one connection's channels until the stream ends.
func (c *TickCollector) consume(ctx context.Context, samples <-chan *models.Sample, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				if samples == nil {
					return
				}
				continue
			}
			c.log.Warn("stream error", logger.Error(err))
		case s, ok := <-samples:
			if !ok {
				samples = nil
				if errs == nil {
					return
				}
				continue
			}
			if err := c.pipe.Process(ctx, s); err != nil {
				c.log.Debug("sample rejected", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *TickCollector) Shutdown(ctx context.Context) error {
	c.stopped.Store(true)
	c.pipe.Stop()
	err := c.stream.Close()
	if c.done != nil {
		select {
		case <-c.done:
		case <-ctx.Done():
		}
	}
	return err
}

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ConsensusBot/internal/domain/models"
	drepo "ConsensusBot/internal/domain/repository"
	mid "ConsensusBot/internal/middleware"
	pkgkafka "ConsensusBot/pkg/kafka"
	"ConsensusBot/pkg/logger"
)

// TickSource pushes raw ticks into the live feed until shut down.
type TickSource interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
	IsConnected() bool
}

var (
	_ TickSource              = (*TickCollector)(nil)
	_ TickSource              = (*KafkaTickSource)(nil)
	_ pkgkafka.MessageHandler = (*KafkaTickSource)(nil)
)

// tickConsumer is the subset of *kafka.Consumer the source drives.
type tickConsumer interface {
	RegisterHandler(pkgkafka.MessageHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Running() bool
}

// TickMessage is the JSON shape of a tick on the ticks topic. The time is
// either an RFC 3339 timestamp or unix milliseconds in ts.
type TickMessage struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
	TS        int64     `json:"ts,omitempty"`
}

func (m TickMessage) sample() *models.Sample {
	ts := m.Timestamp
	if ts.IsZero() && m.TS > 0 {
		ts = time.UnixMilli(m.TS)
	}
	return &models.Sample{
		Symbol:    strings.ToUpper(strings.TrimSpace(m.Symbol)),
		Price:     m.Price,
		Volume:    m.Volume,
		Timestamp: ts.UTC(),
	}
}

// KafkaTickSource consumes ticks published by an upstream collector and
// pushes them through the realtime pipeline, as TickCollector does for a
// websocket stream.
type KafkaTickSource struct {
	consumer tickConsumer
	topic    string
	pipe     *mid.RealtimePipeline
	metrics  drepo.Metrics
	log      *logger.Logger
}

// NewKafkaTickSource registers the source as the consumer's handler for topic.
func NewKafkaTickSource(consumer tickConsumer, topic string, pipe *mid.RealtimePipeline, metrics drepo.Metrics, log *logger.Logger) *KafkaTickSource {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	s := &KafkaTickSource{
		consumer: consumer,
		topic:    topic,
		pipe:     pipe,
		metrics:  metrics,
		log:      log.With("kafka_ticks"),
	}
	consumer.RegisterHandler(s)
	return s
}

func (s *KafkaTickSource) Topic() string { return s.topic }

// Handle decodes one tick. Undecodable or invalid ticks are skipped without
// retry. Downstream failures are buffered by the pipeline, so they are not
// reported back to the consumer either.
func (s *KafkaTickSource) Handle(ctx context.Context, data []byte) error {
	var m TickMessage
	if err := json.Unmarshal(data, &m); err != nil {
		s.metrics.RecordError("tick_decode")
		return fmt.Errorf("decode tick: %w: %w", err, pkgkafka.ErrSkip)
	}
	err := s.pipe.Process(ctx, m.sample())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrInvalidSample):
		return fmt.Errorf("tick %q: %w: %w", m.Symbol, err, pkgkafka.ErrSkip)
	default:
		s.log.Debug("tick buffered", logger.String("symbol", m.Symbol), logger.Error(err))
		return nil
	}
}

func (s *KafkaTickSource) Start(ctx context.Context) error {
	s.pipe.Start(ctx)
	if err := s.consumer.Start(ctx); err != nil {
		s.pipe.Stop()
		return fmt.Errorf("start tick consumer: %w", err)
	}
	return nil
}

// Shutdown stops the consumer, then the pipeline.
func (s *KafkaTickSource) Shutdown(ctx context.Context) error {
	err := s.consumer.Stop(ctx)
	s.pipe.Stop()
	return err
}

func (s *KafkaTickSource) IsConnected() bool { return s.consumer.Running() }

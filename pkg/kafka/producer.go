package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

// HeaderContentType marks payloads Publish encoded as JSON.
const HeaderContentType = "content-type"

// Producer publishes engine events and aggregated logs.
type Producer struct {
	writer  *kafka.Writer
	comp    string
	metrics *producerMetrics
}

func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := &ProducerConfig{
		RequiredAcks: -1,
		Compression:  "gzip",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		BatchSize:    100,
		BatchBytes:   1 << 20,
		BatchTimeout: time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka producer: brokers are required")
	}
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}

	var bal kafka.Balancer = &kafka.LeastBytes{}
	if cfg.HashByKey {
		bal = &kafka.Hash{}
	}
	comp := parseCompression(cfg.Compression)
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               bal,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            comp,
		MaxAttempts:            cfg.MaxAttempts,
		WriteTimeout:           cfg.WriteTimeout,
		ReadTimeout:            cfg.ReadTimeout,
		BatchSize:              cfg.BatchSize,
		BatchBytes:             int64(cfg.BatchBytes),
		BatchTimeout:           cfg.BatchTimeout,
		Async:                  cfg.Async,
		AllowAutoTopicCreation: true,
	}
	p := &Producer{writer: w, comp: comp.String(), metrics: newProducerMetrics(cfg.Registerer)}
	if cfg.Async {
		w.Completion = func(msgs []kafka.Message, err error) {
			if err != nil && len(msgs) > 0 {
				p.metrics.errors.WithLabelValues(msgs[0].Topic).Add(float64(len(msgs)))
			}
		}
	}
	return p, nil
}

// Publish writes one message. []byte and string values are sent as is,
// anything else is JSON encoded.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value any) error {
	start := time.Now()
	msg := kafka.Message{Topic: topic, Key: key, Time: start}
	switch v := value.(type) {
	case []byte:
		msg.Value = v
	case string:
		msg.Value = []byte(v)
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s message: %w", topic, err)
		}
		msg.Value = b
		msg.Headers = []kafka.Header{{Key: HeaderContentType, Value: []byte("application/json")}}
	}

	err := p.writer.WriteMessages(ctx, msg)
	p.metrics.observe(topic, p.comp, len(msg.Value), time.Since(start), err)
	return err
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}

type producerMetrics struct {
	messages *prometheus.CounterVec
	errors   *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newProducerMetrics(reg prometheus.Registerer) *producerMetrics {
	return &producerMetrics{
		messages: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "consensusbot_kafka_producer_messages_total",
			Help: "Messages published to Kafka",
		}, []string{"topic", "compression", "result"})),
		errors: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "consensusbot_kafka_producer_errors_total",
			Help: "Producer write errors, including async completions",
		}, []string{"topic"})),
		bytes: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "consensusbot_kafka_producer_bytes_total",
			Help: "Payload bytes published",
		}, []string{"topic", "compression"})),
		latency: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "consensusbot_kafka_producer_publish_seconds",
			Help:    "Publish latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"})),
	}
}

func (m *producerMetrics) observe(topic, comp string, size int, dur time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		m.errors.WithLabelValues(topic).Inc()
	}
	m.messages.WithLabelValues(topic, comp, result).Inc()
	m.bytes.WithLabelValues(topic, comp).Add(float64(size))
	m.latency.WithLabelValues(topic).Observe(dur.Seconds())
}

package kafka

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer(t *testing.T) {
	_, err := NewProducer()
	require.Error(t, err)

	reg := prometheus.NewRegistry()
	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithCompression("zstd"), WithHashByKey(true), WithRegisterer(reg))
	require.NoError(t, err)
	assert.Equal(t, kafkago.Zstd, p.writer.Compression)
	assert.IsType(t, &kafkago.Hash{}, p.writer.Balancer)
	require.NoError(t, p.Close())
}

func TestParseCompressionFallsBackToGzip(t *testing.T) {
	assert.Equal(t, kafkago.Lz4, parseCompression("lz4"))
	assert.Equal(t, kafkago.Gzip, parseCompression("brotli"))
}

func TestProducerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newProducerMetrics(reg)
	m.observe("events", "gzip", 120, 5*time.Millisecond, nil)
	m.observe("events", "gzip", 80, 5*time.Millisecond, errors.New("leader not available"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("events", "gzip", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("events")))
	assert.Equal(t, 200.0, testutil.ToFloat64(m.bytes.WithLabelValues("events", "gzip")))
	assert.Same(t, m.messages, newProducerMetrics(reg).messages)
}

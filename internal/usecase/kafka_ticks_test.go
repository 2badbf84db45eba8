package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ConsensusBot/internal/domain/models"
	mid "ConsensusBot/internal/middleware"
	pkgkafka "ConsensusBot/pkg/kafka"
)

type fakeConsumer struct {
	handler  pkgkafka.MessageHandler
	startErr error
	running  atomic.Bool
}

func (c *fakeConsumer) RegisterHandler(h pkgkafka.MessageHandler) { c.handler = h }

func (c *fakeConsumer) Start(context.Context) error {
	if c.startErr != nil {
		return c.startErr
	}
	c.running.Store(true)
	return nil
}

func (c *fakeConsumer) Stop(context.Context) error {
	c.running.Store(false)
	return nil
}

func (c *fakeConsumer) Running() bool { return c.running.Load() }

type failingProc struct{ calls atomic.Int32 }

func (p *failingProc) Process(context.Context, *models.Sample) error {
	p.calls.Add(1)
	return errors.New("aggregator unavailable")
}

func TestKafkaTickSourceHandle(t *testing.T) {
	sink := &sampleSink{}
	consumer := &fakeConsumer{}
	src := NewKafkaTickSource(consumer, "ticks", mid.NewRealtimePipeline(sink, nopMetrics{}), nil, nil)
	require.Same(t, src, consumer.handler)
	assert.Equal(t, "ticks", src.Topic())

	ctx := context.Background()
	require.NoError(t, src.Handle(ctx, []byte(`{"symbol":"aapl","price":101.5,"volume":3,"timestamp":"2025-06-02T14:00:00Z"}`)))
	require.NoError(t, src.Handle(ctx, []byte(`{"symbol":"MSFT","price":300,"volume":1,"ts":1748872800000}`)))
	require.Equal(t, 2, sink.len())
	assert.Equal(t, "AAPL", sink.samples[0].Symbol)
	assert.Equal(t, time.UnixMilli(1748872800000).UTC(), sink.samples[1].Timestamp)

	err := src.Handle(ctx, []byte(`{not json`))
	require.ErrorIs(t, err, pkgkafka.ErrSkip)

	err = src.Handle(ctx, []byte(`{"symbol":"AAPL","price":0,"timestamp":"2025-06-02T14:00:00Z"}`))
	require.ErrorIs(t, err, pkgkafka.ErrSkip)
	require.ErrorIs(t, err, models.ErrInvalidSample)
	assert.Equal(t, 2, sink.len())
}

func TestKafkaTickSourceDownstreamErrorIsBuffered(t *testing.T) {
	proc := &failingProc{}
	pipe := mid.NewRealtimePipeline(proc, nopMetrics{})
	src := NewKafkaTickSource(&fakeConsumer{}, "ticks", pipe, nil, nil)

	err := src.Handle(context.Background(), []byte(`{"symbol":"AAPL","price":100,"timestamp":"2025-06-02T14:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, int32(1), proc.calls.Load())
	assert.Equal(t, 1, pipe.Buffered())
}

func TestKafkaTickSourceLifecycle(t *testing.T) {
	consumer := &fakeConsumer{}
	src := NewKafkaTickSource(consumer, "ticks", mid.NewRealtimePipeline(&sampleSink{}, nopMetrics{}), nil, nil)

	require.NoError(t, src.Start(context.Background()))
	assert.True(t, src.IsConnected())
	require.NoError(t, src.Shutdown(context.Background()))
	assert.False(t, src.IsConnected())

	broken := &fakeConsumer{startErr: errors.New("no brokers")}
	src = NewKafkaTickSource(broken, "ticks", mid.NewRealtimePipeline(&sampleSink{}, nopMetrics{}), nil, nil)
	require.Error(t, src.Start(context.Background()))
	assert.False(t, src.IsConnected())
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ConsensusBot/internal/domain/models"
)

type sent struct {
	topic string
	key   string
	body  []byte
}

type fakeProducer struct {
	msgs []sent
	err  error
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value any) error {
	if f.err != nil {
		return f.err
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.msgs = append(f.msgs, sent{topic: topic, key: string(key), body: b})
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func TestKafkaEventPublisher_HaltEvent(t *testing.T) {
	fp := &fakeProducer{}
	p := NewKafkaEventPublisher(fp, "engine-events")

	ev := models.EngineEvent{
		Kind:      models.EventHalt,
		Halt:      &models.HaltEvent{State: models.StateHaltedForDailyGoal, Reason: "daily profit goal reached", TodayProfit: 12},
		Timestamp: time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishEvent(context.Background(), ev))
	require.Len(t, fp.msgs, 1)
	assert.Equal(t, "engine-events", fp.msgs[0].topic)
	assert.Equal(t, "halt", fp.msgs[0].key)

	var got map[string]any
	require.NoError(t, json.Unmarshal(fp.msgs[0].body, &got))
	assert.Equal(t, "halt", got["kind"])
	assert.Equal(t, "halted_daily_goal", got["state"])
	assert.Equal(t, 12.0, got["halt"].(map[string]any)["today_profit"])
}

func TestKafkaEventPublisher_ErrorEventCarriesMessage(t *testing.T) {
	fp := &fakeProducer{}
	p := NewKafkaEventPublisher(fp, "engine-events")

	require.NoError(t, p.PublishEvent(context.Background(), models.EngineEvent{
		Kind: models.EventError, Symbol: "BTC", Err: models.ErrInsufficientData,
	}))
	var got map[string]any
	require.NoError(t, json.Unmarshal(fp.msgs[0].body, &got))
	assert.Equal(t, "BTC", fp.msgs[0].key)
	assert.Equal(t, models.ErrInsufficientData.Error(), got["error"])
}

func TestKafkaEventPublisher_WrapsProducerError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewKafkaEventPublisher(&fakeProducer{err: boom}, "t")
	err := p.PublishEvent(context.Background(), models.EngineEvent{Kind: models.EventTrade})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, p.PublishMessage(context.Background(), "logs", []string{"x"}), boom)
}

package repository

import (
	"context"
	"fmt"

	"ConsensusBot/internal/domain/models"
	domrepo "ConsensusBot/internal/domain/repository"
	"ConsensusBot/pkg/logger"
)

// producer is the subset of *kafka.Producer the publisher needs.
type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value any) error
	Close() error
}

// KafkaEventPublisher writes engine events to a Kafka topic keyed by symbol,
// and doubles as the sink for aggregated error logs.
type KafkaEventPublisher struct {
	producer producer
	topic    string
}

var (
	_ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)
	_ logger.Publisher       = (*KafkaEventPublisher)(nil)
)

func NewKafkaEventPublisher(p producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: p, topic: topic}
}

// eventMessage is the wire shape of an engine event.
type eventMessage struct {
	models.EngineEvent
	Error string `json:"error,omitempty"`
	State string `json:"state,omitempty"`
}

func (p *KafkaEventPublisher) PublishEvent(ctx context.Context, ev models.EngineEvent) error {
	msg := eventMessage{EngineEvent: ev}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}
	if ev.Halt != nil {
		msg.State = ev.Halt.State.String()
	}
	key := ev.Symbol
	if key == "" {
		key = string(ev.Kind)
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(key), msg); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Kind, err)
	}
	return nil
}

// PublishMessage sends an arbitrary payload to topic.
func (p *KafkaEventPublisher) PublishMessage(ctx context.Context, topic string, payload any) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

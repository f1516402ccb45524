package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kredexa/lending-engine/internal/domain/event"
	"github.com/kredexa/lending-engine/internal/domain/port"
	"github.com/kredexa/lending-engine/pkg/kafka"
)

const eventTopic = "lending.events"

// envelope is the wire format for published events. The typed event struct
// marshals into payload; identity fields are lifted to the top level so
// consumers can route without decoding the payload.
type envelope struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	AggregateID   string    `json:"aggregate_id"`
	AggregateType string    `json:"aggregate_type"`
	OccurredAt    time.Time `json:"occurred_at"`
	Payload       any       `json:"payload"`
}

// KafkaPublisher implements port.EventPublisher on a Kafka topic. Messages
// are keyed by aggregate ID so events of one loan stay ordered within a
// partition.
type KafkaPublisher struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

var _ port.EventPublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(producer *kafka.Producer, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...event.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(events))
	for _, evt := range events {
		value, err := json.Marshal(envelope{
			EventID:       evt.EventID().String(),
			EventType:     evt.EventType(),
			AggregateID:   evt.AggregateID(),
			AggregateType: evt.AggregateType(),
			OccurredAt:    evt.OccurredAt(),
			Payload:       evt,
		})
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", evt.EventType(), err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(evt.AggregateID()),
			Value: value,
			Headers: map[string]string{
				"event_type": evt.EventType(),
			},
		})
	}

	if err := p.producer.Publish(ctx, eventTopic, messages...); err != nil {
		return err
	}
	p.logger.Debug("published domain events", "count", len(messages), "topic", eventTopic)
	return nil
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/davex-ai/SwiftBites/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic    = "order-events"
	eventTypeHeader = "event_type"
)

// Publisher writes order events to Kafka keyed by order ID, so every event for
// one order lands on the same partition in order.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(topic string, brokers ...string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w}
}

func (p *Publisher) Publish(ctx context.Context, event domain.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write order event %s: %w", event.ID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kodbank/kodbank/internal/logging"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON to a Kafka topic, keyed by username
// so that one customer's events stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	logger logging.Logger
}

// NewKafkaPublisher returns a publisher whose writes are asynchronous:
// Publish returns once the message is buffered and delivery failures are
// only logged.
func NewKafkaPublisher(brokers []string, topic string, l logging.Logger) *KafkaPublisher {
	p := &KafkaPublisher{logger: l.With("component", "audit")}
	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		Async:                  true,
		AllowAutoTopicCreation: true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				p.logger.Error(context.Background(), "audit delivery failed", "count", len(messages), "error", err)
			}
		},
	}
	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	msg := kafka.Message{Key: []byte(e.Username), Value: b}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	p.logger.Debug(ctx, "audit event queued", "type", e.Type)
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close audit writer: %w", err)
	}
	return nil
}

// Package kafka delivers outbox messages to Kafka.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"retailops/internal/infrastructure/storage/postgres"
)

// Header keys set on every message.
const (
	HeaderEventType     = "event-type"
	HeaderAggregateType = "aggregate-type"
	HeaderMessageID     = "message-id"
	HeaderOccurredAt    = "occurred-at"
)

// Writer is the part of kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config holds producer settings.
type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	RequiredAcks kafka.RequiredAcks
}

// NewWriter builds a synchronous kafka.Writer for cfg.
func NewWriter(cfg Config) *kafka.Writer {
	acks := cfg.RequiredAcks
	if acks == 0 {
		acks = kafka.RequireAll
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: acks,
		Async:        false,
	}
}

// OutboxPublisher implements postgres.OutboxHandler by writing each message
// to Kafka keyed by aggregate id, so events of one sale stay ordered within
// a partition.
type OutboxPublisher struct {
	writer  Writer
	breaker *Breaker
}

var _ postgres.OutboxHandler = (*OutboxPublisher)(nil)

// NewOutboxPublisher creates a publisher writing through breaker.
func NewOutboxPublisher(writer Writer, breaker *Breaker) *OutboxPublisher {
	return &OutboxPublisher{writer: writer, breaker: breaker}
}

// Message converts an outbox row to a Kafka message.
func Message(msg *postgres.OutboxMessage) kafka.Message {
	return kafka.Message{
		Key:   []byte(msg.AggregateID.String()),
		Value: msg.Payload,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(msg.EventType)},
			{Key: HeaderAggregateType, Value: []byte(msg.AggregateType)},
			{Key: HeaderMessageID, Value: []byte(msg.ID.String())},
			{Key: HeaderOccurredAt, Value: []byte(msg.OccurredAt.UTC().Format(time.RFC3339Nano))},
		},
		Time: msg.OccurredAt,
	}
}

// Handle implements postgres.OutboxHandler.
func (p *OutboxPublisher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	km := Message(msg)
	err := p.breaker.Execute(func() error {
		return p.writer.WriteMessages(ctx, km)
	})
	if err != nil {
		return fmt.Errorf("publish %s %s: %w", msg.EventType, msg.ID, err)
	}
	return nil
}

// Close closes the underlying writer.
func (p *OutboxPublisher) Close() error {
	return p.writer.Close()
}

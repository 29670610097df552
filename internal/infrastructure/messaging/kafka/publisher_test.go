package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/id"
	"retailops/internal/domain/events"
	"retailops/internal/infrastructure/storage/postgres"
)

type fakeWriter struct {
	err  error
	sent []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.sent = append(w.sent, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func outboxMessage() *postgres.OutboxMessage {
	return &postgres.OutboxMessage{
		ID:            id.New(),
		AggregateType: events.AggregateSale,
		AggregateID:   id.New(),
		EventType:     events.TypeSaleRecorded,
		Payload:       []byte(`{"saleId":"x"}`),
		OccurredAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestOutboxPublisher_Handle(t *testing.T) {
	w := &fakeWriter{}
	p := NewOutboxPublisher(w, NewBreaker(DefaultBreakerConfig("test")))
	msg := outboxMessage()

	require.NoError(t, p.Handle(context.Background(), msg))
	require.Len(t, w.sent, 1)

	sent := w.sent[0]
	assert.Equal(t, msg.AggregateID.String(), string(sent.Key))
	assert.Equal(t, msg.Payload, sent.Value)

	headers := map[string]string{}
	for _, h := range sent.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, events.TypeSaleRecorded, headers[HeaderEventType])
	assert.Equal(t, events.AggregateSale, headers[HeaderAggregateType])
	assert.Equal(t, msg.ID.String(), headers[HeaderMessageID])
	assert.Equal(t, "2024-03-01T12:00:00Z", headers[HeaderOccurredAt])
}

func TestOutboxPublisher_BreakerOpensAfterFailures(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	cfg := DefaultBreakerConfig("test")
	cfg.FailureThreshold = 2
	breaker := NewBreaker(cfg)
	p := NewOutboxPublisher(w, breaker)

	for range 2 {
		err := p.Handle(context.Background(), outboxMessage())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}
	assert.Equal(t, gobreaker.StateOpen, breaker.State())

	err := p.Handle(context.Background(), outboxMessage())
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

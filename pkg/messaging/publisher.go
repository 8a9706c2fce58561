package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jwalitptl/records-api/pkg/metrics"
)

// EventPublisher wraps domain payloads in a Message and hands them to a
// Broker on a single channel.
type EventPublisher struct {
	broker  Broker
	channel string
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewEventPublisher(broker Broker, channel string, m *metrics.Metrics) *EventPublisher {
	return &EventPublisher{
		broker:  broker,
		channel: channel,
		metrics: m,
		now:     time.Now,
	}
}

func (p *EventPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	msg := Message{
		ID:         uuid.NewString(),
		Type:       eventType,
		Payload:    payload,
		OccurredAt: p.now().UTC(),
	}

	err := p.broker.Publish(ctx, p.channel, msg)
	p.metrics.ObserveEvent(eventType, err)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}
	return nil
}

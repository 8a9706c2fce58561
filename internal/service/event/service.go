package event

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/records-api/pkg/messaging"
)

const publishTimeout = 2 * time.Second

// EventService emits domain events after a successful commit. Delivery is
// best-effort: failures are logged and never reach the caller.
type EventService struct {
	publisher messaging.Publisher
	logger    *zerolog.Logger
}

func NewEventService(publisher messaging.Publisher, logger *zerolog.Logger) *EventService {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &EventService{
		publisher: publisher,
		logger:    logger,
	}
}

func (s *EventService) Emit(ctx context.Context, eventType string, payload interface{}) {
	// The request may finish before the broker answers.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		s.logger.Warn().
			Err(err).
			Str("event_type", eventType).
			Msg("Failed to publish event")
	}
}

package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository"
)

// Emitter records domain events in the outbox. The worker publishes them.
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{}) error
	BookingChanged(ctx context.Context, eventType string, booking *model.Booking)
}

type EventService struct {
	outboxRepo repository.OutboxRepository
	logger     zerolog.Logger
	now        func() time.Time
}

func NewEventService(outboxRepo repository.OutboxRepository, logger zerolog.Logger) *EventService {
	return &EventService{
		outboxRepo: outboxRepo,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *EventService) Emit(ctx context.Context, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &model.OutboxEvent{
		EventType: eventType,
		Payload:   payloadJSON,
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

// BookingChanged emits a BookingChange for b. Failures are logged only: the
// booking row is already the source of truth and listeners refetch it.
func (s *EventService) BookingChanged(ctx context.Context, eventType string, b *model.Booking) {
	change := model.BookingChange{
		Event:          eventType,
		BookingID:      b.ID,
		UserID:         b.UserID,
		PractitionerID: b.PractitionerID,
		Status:         b.Status,
		PaymentStatus:  b.PaymentStatus,
		OccurredAt:     s.now().UTC(),
	}
	if err := s.Emit(ctx, eventType, change); err != nil {
		s.logger.Warn().Err(err).
			Str("booking_id", b.ID.String()).
			Str("event_type", eventType).
			Msg("Failed to record booking change")
	}
}

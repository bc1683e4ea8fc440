package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository"
	"github.com/jwalitptl/carebook-api/internal/service/checkout"
	"github.com/jwalitptl/carebook-api/internal/service/event"
	"github.com/jwalitptl/carebook-api/pkg/metrics"
	"github.com/jwalitptl/carebook-api/pkg/payment"
)

// Outcome describes what a delivery did. Every outcome is acknowledged to the
// gateway with 200.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeNoMatch   Outcome = "no_match"
	OutcomeStale     Outcome = "stale"
	OutcomeUnchanged Outcome = "unchanged"
)

type WebhookServicer interface {
	Handle(ctx context.Context, evt *payment.WebhookEvent) (Outcome, error)
}

type Service struct {
	bookings repository.BookingRepository
	payments repository.PaymentRepository
	events   event.Emitter
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(
	bookings repository.BookingRepository,
	payments repository.PaymentRepository,
	events event.Emitter,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		bookings: bookings,
		payments: payments,
		events:   events,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Handle reconciles one gateway event. The payment and booking updates are
// independent: a failure in one is logged and does not undo the other.
// An error means the event could not be matched because the store failed
// and the delivery should be retried.
func (s *Service) Handle(ctx context.Context, evt *payment.WebhookEvent) (Outcome, error) {
	var (
		outcome Outcome
		err     error
	)
	switch evt.Type {
	case payment.EventPaymentSucceeded:
		outcome, err = s.reconcile(ctx, evt, true)
	case payment.EventPaymentFailed:
		outcome, err = s.reconcile(ctx, evt, false)
	default:
		s.logger.Info().Str("type", evt.Type).Str("event_id", evt.ID).Msg("Ignoring unhandled webhook event")
		outcome = OutcomeIgnored
	}

	label := string(outcome)
	if err != nil {
		label = "error"
	}
	s.metrics.WebhookEvents.WithLabelValues(evt.Type, label).Inc()
	return outcome, err
}

func (s *Service) reconcile(ctx context.Context, evt *payment.WebhookEvent, succeeded bool) (Outcome, error) {
	logger := s.logger.With().Str("event_id", evt.ID).Str("type", evt.Type).Logger()

	bookingID, err := uuid.Parse(evt.Payload.MetadataString(checkout.MetaBookingID))
	if err != nil {
		logger.Warn().Msg("Webhook without a usable booking_id")
		return OutcomeNoMatch, nil
	}
	logger = logger.With().Str("booking_id", bookingID.String()).Logger()

	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn().Msg("Webhook for unknown booking")
			return OutcomeNoMatch, nil
		}
		return "", fmt.Errorf("failed to load booking for webhook: %w", err)
	}

	latest, err := s.payments.GetLatestByBooking(ctx, bookingID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("failed to load payment for webhook: %w", err)
	}

	target := latest
	if latest != nil && superseded(evt, latest) {
		attempt := evt.Payload.MetadataString(checkout.MetaAttemptID)
		if !succeeded {
			logger.Warn().
				Str("attempt_id", attempt).
				Str("latest_attempt_id", latest.AttemptID.String()).
				Msg("Ignoring payment failure for superseded checkout attempt")
			return OutcomeStale, nil
		}
		// Money was captured on an older attempt: that attempt's row is
		// completed and the booking is still paid.
		target, err = s.attemptPayment(ctx, bookingID, attempt)
		if err != nil {
			return "", err
		}
		logger.Info().Str("attempt_id", attempt).Msg("Payment succeeded on superseded checkout attempt")
	}

	if !succeeded && booking.PaymentStatus == model.PaymentStatusPaid {
		logger.Warn().Msg("Ignoring payment failure for a booking that is already paid")
		return OutcomeUnchanged, nil
	}

	if target != nil {
		s.updatePayment(ctx, logger, target, evt, succeeded)
	} else {
		logger.Warn().Msg("No payment record for checkout attempt, updating booking only")
	}

	status, paidAt, eventType := model.PaymentStatusFailed, (*time.Time)(nil), model.EventPaymentFailed
	if succeeded {
		now := s.now().UTC()
		status, paidAt, eventType = model.PaymentStatusPaid, &now, model.EventPaymentCompleted
	}
	if err := s.bookings.UpdatePaymentStatus(ctx, bookingID, status, paidAt); err != nil {
		logger.Error().Err(err).Msg("Failed to update booking payment status")
	} else {
		booking.PaymentStatus = status
		booking.PaidAt = paidAt
		s.events.BookingChanged(ctx, eventType, booking)
	}

	return OutcomeApplied, nil
}

// attemptPayment loads the payment row of a specific checkout attempt. It
// returns nil when the attempt is unknown or belongs to another booking.
func (s *Service) attemptPayment(ctx context.Context, bookingID uuid.UUID, attempt string) (*model.Payment, error) {
	id, err := uuid.Parse(attempt)
	if err != nil {
		return nil, nil
	}
	p, err := s.payments.GetByAttemptID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load payment attempt: %w", err)
	}
	if p.BookingID != bookingID {
		return nil, nil
	}
	return p, nil
}

func (s *Service) updatePayment(ctx context.Context, logger zerolog.Logger, p *model.Payment, evt *payment.WebhookEvent, succeeded bool) {
	status := model.PaymentRecordFailed
	if succeeded {
		status = model.PaymentRecordCompleted
	}
	if !succeeded && p.Status == model.PaymentRecordCompleted {
		return
	}

	var gatewayID, method *string
	if evt.Payload.ID != "" {
		gatewayID = &evt.Payload.ID
	}
	if m := evt.Payload.MethodType(); m != "" {
		method = &m
	}

	if err := s.payments.UpdateStatus(ctx, p.ID, status, gatewayID, method); err != nil {
		logger.Error().Err(err).Str("payment_id", p.ID.String()).Msg("Failed to update payment status")
	}
}

// superseded reports whether evt belongs to an older checkout attempt than
// latest. Events without an attempt id predate attempt tracking and are
// matched by booking only.
func superseded(evt *payment.WebhookEvent, latest *model.Payment) bool {
	attempt := evt.Payload.MetadataString(checkout.MetaAttemptID)
	if attempt == "" {
		return false
	}
	id, err := uuid.Parse(attempt)
	if err != nil {
		return true
	}
	return id != latest.AttemptID
}

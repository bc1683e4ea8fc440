package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository"
	"github.com/jwalitptl/carebook-api/internal/session"
	apperrors "github.com/jwalitptl/carebook-api/pkg/errors"
	"github.com/jwalitptl/carebook-api/pkg/metrics"
	"github.com/jwalitptl/carebook-api/pkg/payment"
)

// Metadata keys sent to the gateway and read back from webhooks.
const (
	MetaBookingID = "booking_id"
	MetaUserID    = "user_id"
	MetaAttemptID = "attempt_id"
)

// Request is the checkout bridge input. Amount is accepted for client
// compatibility and never used.
type Request struct {
	BookingID  string            `json:"booking_id"`
	Currency   string            `json:"currency"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
	FailureURL string            `json:"failure_url"`
	Metadata   map[string]string `json:"metadata"`
	Amount     interface{}       `json:"amount,omitempty"`
}

type Result struct {
	CheckoutID  string    `json:"checkout_id"`
	RedirectURL string    `json:"redirect_url"`
	PaymentID   uuid.UUID `json:"-"`
}

type CheckoutServicer interface {
	CreateCheckout(ctx context.Context, sess *session.Session, req Request) (*Result, error)
}

type Service struct {
	bookings        repository.BookingRepository
	payments        repository.PaymentRepository
	gateway         payment.Gateway
	defaultCurrency string
	metrics         *metrics.Metrics
	logger          zerolog.Logger
}

func NewService(
	bookings repository.BookingRepository,
	payments repository.PaymentRepository,
	gateway payment.Gateway,
	defaultCurrency string,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		bookings:        bookings,
		payments:        payments,
		gateway:         gateway,
		defaultCurrency: defaultCurrency,
		metrics:         m,
		logger:          logger,
	}
}

// CreateCheckout opens a hosted checkout for one of the caller's bookings.
// The amount always comes from the stored booking. Nothing is written unless
// the gateway accepted the request.
func (s *Service) CreateCheckout(ctx context.Context, sess *session.Session, req Request) (*Result, error) {
	res, err := s.createCheckout(ctx, sess, req)
	s.metrics.CheckoutSessions.WithLabelValues(outcome(err)).Inc()
	return res, err
}

func (s *Service) createCheckout(ctx context.Context, sess *session.Session, req Request) (*Result, error) {
	if sess == nil {
		return nil, apperrors.Unauthorized(session.ErrUnauthenticated)
	}

	bookingID, err := uuid.Parse(strings.TrimSpace(req.BookingID))
	if err != nil {
		return nil, apperrors.BadRequest("invalid booking_id", err)
	}
	if req.SuccessURL == "" || req.CancelURL == "" {
		return nil, apperrors.BadRequest("success_url and cancel_url are required", nil)
	}

	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("booking", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to load booking: %w", err))
	}

	if booking.UserID != sess.UserID {
		return nil, apperrors.Forbidden("booking does not belong to the caller")
	}
	if booking.PaymentStatus == model.PaymentStatusPaid {
		return nil, apperrors.BadRequest("booking is already paid", nil)
	}

	amountMinor, err := payment.ToMinorUnits(booking.TotalAmount)
	if err != nil {
		return nil, apperrors.BadRequest("booking amount is invalid", err)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}

	attemptID := uuid.New()
	metadata := make(map[string]string, len(req.Metadata)+3)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata[MetaBookingID] = booking.ID.String()
	metadata[MetaUserID] = sess.UserID.String()
	metadata[MetaAttemptID] = attemptID.String()

	failureURL := req.FailureURL
	if failureURL == "" {
		failureURL = req.CancelURL
	}

	checkout, err := s.gateway.CreateCheckout(ctx, payment.CheckoutRequest{
		AmountMinor:    amountMinor,
		Currency:       currency,
		SuccessURL:     req.SuccessURL,
		CancelURL:      req.CancelURL,
		FailureURL:     failureURL,
		Metadata:       metadata,
		IdempotencyKey: attemptID.String(),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID.String()).Msg("Gateway rejected checkout")
		return nil, apperrors.Upstream("failed to create checkout session", err)
	}

	record := &model.Payment{
		BookingID:  booking.ID,
		UserID:     sess.UserID,
		Amount:     booking.TotalAmount,
		Currency:   currency,
		Status:     model.PaymentRecordPending,
		CheckoutID: checkout.ID,
		AttemptID:  attemptID,
	}
	if err := s.payments.Create(ctx, record); err != nil {
		s.logger.Error().Err(err).
			Str("booking_id", booking.ID.String()).
			Str("checkout_id", checkout.ID).
			Msg("Failed to record pending payment")
		return nil, apperrors.Internal(fmt.Errorf("failed to record payment: %w", err))
	}

	return &Result{
		CheckoutID:  checkout.ID,
		RedirectURL: checkout.RedirectURL,
		PaymentID:   record.ID,
	}, nil
}

func outcome(err error) string {
	if err == nil {
		return "created"
	}
	switch apperrors.StatusOf(err) {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return "rejected"
	default:
		return "error"
	}
}

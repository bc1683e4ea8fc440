package booking

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository"
	"github.com/jwalitptl/carebook-api/internal/service/checkout"
	"github.com/jwalitptl/carebook-api/internal/service/event"
	"github.com/jwalitptl/carebook-api/internal/session"
	apperrors "github.com/jwalitptl/carebook-api/pkg/errors"
	"github.com/jwalitptl/carebook-api/pkg/metrics"
)

const deferredPaymentMessage = "Your booking is confirmed. Online payment is unavailable right now, you can complete payment later from your dashboard."

// ReturnURLs are where the hosted checkout sends the browser back to.
type ReturnURLs struct {
	Success string
	Cancel  string
	Failure string
}

type SubmitResult struct {
	Booking         *model.Booking `json:"booking"`
	CheckoutID      string         `json:"checkout_id,omitempty"`
	RedirectURL     string         `json:"redirect_url,omitempty"`
	PaymentDeferred bool           `json:"payment_deferred"`
	Message         string         `json:"message,omitempty"`
}

// DraftView is a wizard preloaded from a service query parameter.
type DraftView struct {
	Step      string   `json:"step"`
	Draft     Draft    `json:"draft"`
	TimeSlots []string `json:"time_slots"`
	Total     string   `json:"total"`
}

type BookingServicer interface {
	Submit(ctx context.Context, sess *session.Session, w *Wizard, urls ReturnURLs) (*SubmitResult, error)
	Draft(ctx context.Context, serviceID uuid.UUID) (*DraftView, error)
	Get(ctx context.Context, sess *session.Session, id uuid.UUID) (*model.BookingDetail, error)
	ListMine(ctx context.Context, sess *session.Session, filters model.BookingFilters) ([]*model.BookingDetail, error)
	Cancel(ctx context.Context, sess *session.Session, id uuid.UUID) error
	ServiceByID(ctx context.Context, id uuid.UUID) (*model.Service, error)
	Replay(svc *model.Service, req SubmitRequest) (*Wizard, error)
}

type Service struct {
	bookings repository.BookingRepository
	services repository.ServiceRepository
	checkout checkout.CheckoutServicer
	events   event.Emitter
	siteURL  string
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(
	bookings repository.BookingRepository,
	services repository.ServiceRepository,
	checkoutSvc checkout.CheckoutServicer,
	events event.Emitter,
	siteURL string,
	loc *time.Location,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		bookings: bookings,
		services: services,
		checkout: checkoutSvc,
		events:   events,
		siteURL:  strings.TrimRight(siteURL, "/"),
		metrics:  m,
		logger:   logger,
		now:      func() time.Time { return time.Now().In(loc) },
	}
}

// NewWizard starts a wizard relative to the service clock, in the clinic's
// time zone.
func (s *Service) NewWizard() *Wizard {
	return NewWizard(s.now())
}

// Submit stores the wizard's draft and starts payment. Online payments that
// cannot reach the checkout bridge fall back to a confirmed, unpaid booking.
func (s *Service) Submit(ctx context.Context, sess *session.Session, w *Wizard, urls ReturnURLs) (*SubmitResult, error) {
	if sess == nil {
		return nil, apperrors.Unauthorized(session.ErrUnauthenticated)
	}
	if !w.Ready() {
		return nil, apperrors.BadRequest("booking is incomplete", ErrStepIncomplete)
	}

	draft := w.Draft()
	booking := &model.Booking{
		UserID:         sess.UserID,
		ServiceID:      draft.Service.ID,
		LocationID:     draft.LocationID,
		PractitionerID: draft.PractitionerID,
		BookingDate:    *draft.Date,
		BookingTime:    draft.Time,
		GroupSize:      draft.GroupSize,
		TotalAmount:    ComputeTotal(draft),
		Status:         model.BookingStatusPending,
		PaymentStatus:  model.PaymentStatusPending,
	}
	if notes := strings.TrimSpace(draft.Notes); notes != "" {
		booking.SpecialNotes = &notes
	}
	if draft.PaymentMethod == model.PaymentMethodPayOnArrival {
		booking.PaymentStatus = model.PaymentStatusPayOnArrival
	}

	method := string(draft.PaymentMethod)
	if err := s.bookings.Create(ctx, booking); err != nil {
		s.metrics.BookingsCreated.WithLabelValues(method, "error").Inc()
		return nil, apperrors.Upstream("could not save your booking, please try again", err)
	}
	s.events.BookingChanged(ctx, model.EventBookingCreated, booking)

	if draft.PaymentMethod == model.PaymentMethodPayOnArrival {
		s.confirm(ctx, booking)
		s.metrics.BookingsCreated.WithLabelValues(method, "confirmed").Inc()
		return &SubmitResult{Booking: booking, Message: "Your booking is confirmed. Payment will be collected on arrival."}, nil
	}

	urls = s.withDefaults(urls, booking.ID)
	res, err := s.checkout.CreateCheckout(ctx, sess, checkout.Request{
		BookingID:  booking.ID.String(),
		SuccessURL: urls.Success,
		CancelURL:  urls.Cancel,
		FailureURL: urls.Failure,
		Amount:     booking.TotalAmount.StringFixed(2),
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("booking_id", booking.ID.String()).
			Msg("Checkout unavailable, confirming booking with deferred payment")
		s.confirm(ctx, booking)
		s.metrics.BookingsCreated.WithLabelValues(method, "deferred").Inc()
		return &SubmitResult{Booking: booking, PaymentDeferred: true, Message: deferredPaymentMessage}, nil
	}

	s.metrics.BookingsCreated.WithLabelValues(method, "redirected").Inc()
	return &SubmitResult{
		Booking:     booking,
		CheckoutID:  res.CheckoutID,
		RedirectURL: res.RedirectURL,
	}, nil
}

// confirm flips a freshly created booking to confirmed. The booking already
// exists, so a failure here is logged rather than returned.
func (s *Service) confirm(ctx context.Context, booking *model.Booking) {
	if err := s.bookings.UpdateStatus(ctx, booking.ID, model.BookingStatusConfirmed); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID.String()).Msg("Failed to confirm booking")
		return
	}
	booking.Status = model.BookingStatusConfirmed
	s.events.BookingChanged(ctx, model.EventBookingUpdated, booking)
}

func (s *Service) withDefaults(urls ReturnURLs, bookingID uuid.UUID) ReturnURLs {
	page := func(path string) string {
		q := url.Values{"booking_id": {bookingID.String()}}
		return s.siteURL + path + "?" + q.Encode()
	}
	if urls.Success == "" {
		urls.Success = page("/booking/success")
	}
	if urls.Cancel == "" {
		urls.Cancel = page("/booking/cancelled")
	}
	if urls.Failure == "" {
		urls.Failure = urls.Cancel
	}
	return urls
}

func (s *Service) ServiceByID(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	svc, err := s.services.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("service", err)
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	if !svc.IsActive {
		return nil, apperrors.NotFound("service", ErrInactiveService)
	}
	return svc, nil
}

// Draft preselects a service and moves the wizard to the date step.
func (s *Service) Draft(ctx context.Context, serviceID uuid.UUID) (*DraftView, error) {
	svc, err := s.ServiceByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	w := s.NewWizard()
	if err := w.SelectService(svc); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}
	if err := w.Next(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	return &DraftView{
		Step:      w.Step().String(),
		Draft:     w.Draft(),
		TimeSlots: TimeSlots(),
		Total:     w.Total().StringFixed(2),
	}, nil
}

func (s *Service) Get(ctx context.Context, sess *session.Session, id uuid.UUID) (*model.BookingDetail, error) {
	if sess == nil {
		return nil, apperrors.Unauthorized(session.ErrUnauthenticated)
	}

	booking, err := s.bookings.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("booking", err)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking.UserID != sess.UserID && !sess.IsAdmin() {
		return nil, apperrors.Forbidden("booking does not belong to the caller")
	}
	return booking, nil
}

func (s *Service) ListMine(ctx context.Context, sess *session.Session, filters model.BookingFilters) ([]*model.BookingDetail, error) {
	if sess == nil {
		return nil, apperrors.Unauthorized(session.ErrUnauthenticated)
	}
	filters.UserID = &sess.UserID
	filters.PractitionerID = nil

	bookings, err := s.bookings.List(ctx, &filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// Cancel lets a patient cancel their own pending or confirmed booking.
func (s *Service) Cancel(ctx context.Context, sess *session.Session, id uuid.UUID) error {
	if sess == nil {
		return apperrors.Unauthorized(session.ErrUnauthenticated)
	}

	booking, err := s.bookings.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("booking", err)
		}
		return fmt.Errorf("failed to get booking: %w", err)
	}
	if booking.UserID != sess.UserID {
		return apperrors.Forbidden("booking does not belong to the caller")
	}
	if !booking.Status.CanTransitionTo(model.BookingStatusCancelled) {
		return apperrors.BadRequest(fmt.Sprintf("a %s booking cannot be cancelled", booking.Status), nil)
	}

	if err := s.bookings.UpdateStatus(ctx, id, model.BookingStatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	booking.Status = model.BookingStatusCancelled
	s.metrics.BookingTransitions.WithLabelValues(string(model.BookingStatusCancelled)).Inc()
	s.events.BookingChanged(ctx, model.EventBookingUpdated, booking)
	return nil
}

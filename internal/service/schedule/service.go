package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository"
	"github.com/jwalitptl/carebook-api/internal/service/event"
	"github.com/jwalitptl/carebook-api/internal/session"
	apperrors "github.com/jwalitptl/carebook-api/pkg/errors"
	"github.com/jwalitptl/carebook-api/pkg/messaging"
	"github.com/jwalitptl/carebook-api/pkg/metrics"
)

// Action is a practitioner's move on a booking.
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionComplete Action = "complete"
	ActionNoShow   Action = "no-show"
	ActionCancel   Action = "cancel"
)

var actionTargets = map[Action]model.BookingStatus{
	ActionConfirm:  model.BookingStatusConfirmed,
	ActionComplete: model.BookingStatusCompleted,
	ActionNoShow:   model.BookingStatusNoShow,
	ActionCancel:   model.BookingStatusCancelled,
}

// Target returns the status an action moves a booking to.
func (a Action) Target() (model.BookingStatus, bool) {
	status, ok := actionTargets[a]
	return status, ok
}

var ErrNotPractitioner = errors.New("caller has no practitioner record")

type ScheduleView struct {
	View  View                   `json:"view"`
	From  string                 `json:"from"`
	To    string                 `json:"to"`
	Days  []Day                  `json:"days"`
	Next  *model.BookingDetail   `json:"next_appointment"`
	Weeks [][]string             `json:"weeks,omitempty"`
	Today []*model.BookingDetail `json:"today"`
}

type ScheduleServicer interface {
	Schedule(ctx context.Context, sess *session.Session, view View, anchor time.Time) (*ScheduleView, error)
	Transition(ctx context.Context, sess *session.Session, bookingID uuid.UUID, action Action) (*model.Booking, error)
	PatientProfile(ctx context.Context, sess *session.Session, patientID uuid.UUID) (*model.PatientProfile, error)
}

type Service struct {
	bookings      repository.BookingRepository
	practitioners repository.PractitionerRepository
	users         repository.UserRepository
	events        event.Emitter
	cache         *cache.Cache
	metrics       *metrics.Metrics
	logger        zerolog.Logger
	now           func() time.Time
}

func NewService(
	bookings repository.BookingRepository,
	practitioners repository.PractitionerRepository,
	users repository.UserRepository,
	events event.Emitter,
	ttl time.Duration,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Service{
		bookings:      bookings,
		practitioners: practitioners,
		users:         users,
		events:        events,
		cache:         cache.New(ttl, 2*ttl),
		metrics:       m,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *Service) practitionerFor(ctx context.Context, sess *session.Session) (*model.Practitioner, error) {
	if sess == nil {
		return nil, apperrors.Unauthorized(session.ErrUnauthenticated)
	}
	if !sess.IsPractitioner() {
		return nil, apperrors.Forbidden("practitioner role required")
	}
	p, err := s.practitioners.GetByUserID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Forbidden(ErrNotPractitioner.Error())
		}
		return nil, fmt.Errorf("failed to load practitioner: %w", err)
	}
	return p, nil
}

// Schedule returns the caller's bookings for the view around anchor, with the
// next upcoming appointment and the month grid when viewing a month.
func (s *Service) Schedule(ctx context.Context, sess *session.Session, view View, anchor time.Time) (*ScheduleView, error) {
	p, err := s.practitionerFor(ctx, sess)
	if err != nil {
		return nil, err
	}

	period := PeriodFor(view, anchor)
	last := period.End.AddDate(0, 0, -1)
	periodKey := fmt.Sprintf("%s:%s:%s", view, period.Start.Format(model.DateLayout), last.Format(model.DateLayout))
	inPeriod, err := s.cachedList(ctx, p.ID, periodKey, model.BookingFilters{
		PractitionerID: &p.ID,
		DateRange:      model.DateRange{From: &period.Start, To: &last},
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := dateOf(now)
	upcoming, err := s.cachedList(ctx, p.ID, "upcoming:"+today.Format(model.DateLayout), model.BookingFilters{
		PractitionerID: &p.ID,
		Statuses:       []model.BookingStatus{model.BookingStatusPending, model.BookingStatusConfirmed},
		DateRange:      model.DateRange{From: &today},
	})
	if err != nil {
		return nil, err
	}

	out := &ScheduleView{
		View:  view,
		From:  period.Start.Format(model.DateLayout),
		To:    last.Format(model.DateLayout),
		Days:  Partition(inPeriod, view, anchor),
		Next:  NextAppointment(upcoming, now),
		Today: Partition(upcoming, ViewDay, now)[0].Bookings,
	}
	if view == ViewMonth {
		for _, week := range MonthGrid(anchor) {
			row := make([]string, len(week))
			for i, d := range week {
				row[i] = d.Format(model.DateLayout)
			}
			out.Weeks = append(out.Weeks, row)
		}
	}
	return out, nil
}

func (s *Service) cachedList(ctx context.Context, practitionerID uuid.UUID, suffix string, filters model.BookingFilters) ([]*model.BookingDetail, error) {
	key := cacheKey(practitionerID) + suffix
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*model.BookingDetail), nil
	}
	list, err := s.bookings.List(ctx, &filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule: %w", err)
	}
	s.cache.SetDefault(key, list)
	return list, nil
}

func cacheKey(practitionerID uuid.UUID) string {
	return practitionerID.String() + ":"
}

// Transition applies action to a booking assigned to the caller. Admins may
// act on any booking. Only the booking status changes.
func (s *Service) Transition(ctx context.Context, sess *session.Session, bookingID uuid.UUID, action Action) (*model.Booking, error) {
	target, ok := action.Target()
	if !ok {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown action %q", action), nil)
	}
	if sess == nil {
		return nil, apperrors.Unauthorized(session.ErrUnauthenticated)
	}

	var practitioner *model.Practitioner
	if !sess.IsAdmin() {
		p, err := s.practitionerFor(ctx, sess)
		if err != nil {
			return nil, err
		}
		practitioner = p
	}

	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("booking", err)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if practitioner != nil && (booking.PractitionerID == nil || *booking.PractitionerID != practitioner.ID) {
		return nil, apperrors.Forbidden("booking is not assigned to you")
	}
	if !booking.Status.CanTransitionTo(target) {
		return nil, apperrors.BadRequest(fmt.Sprintf("cannot %s a %s booking", action, booking.Status), nil)
	}

	if err := s.bookings.UpdateStatus(ctx, booking.ID, target); err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	booking.Status = target
	s.metrics.BookingTransitions.WithLabelValues(string(target)).Inc()
	s.events.BookingChanged(ctx, model.EventBookingUpdated, booking)
	if booking.PractitionerID != nil {
		s.invalidate(*booking.PractitionerID)
	}
	return booking, nil
}

// PatientProfile returns a patient's contact details and their bookings with
// the caller. Patients without a booking with the caller are hidden.
func (s *Service) PatientProfile(ctx context.Context, sess *session.Session, patientID uuid.UUID) (*model.PatientProfile, error) {
	p, err := s.practitionerFor(ctx, sess)
	if err != nil {
		return nil, err
	}

	ok, err := s.bookings.HasPractitionerPatient(ctx, p.ID, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to check patient relation: %w", err)
	}
	if !ok {
		return nil, apperrors.Forbidden("patient has no booking with you")
	}

	user, err := s.users.Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	bookings, err := s.bookings.List(ctx, &model.BookingFilters{UserID: &patientID, PractitionerID: &p.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to list patient bookings: %w", err)
	}

	return &model.PatientProfile{
		ID:       user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Phone:    user.Phone,
		Bookings: bookings,
	}, nil
}

// Listen drops cached schedules whenever another process reports a booking
// change. It returns once the subscription is established.
func (s *Service) Listen(ctx context.Context, broker messaging.Broker) error {
	return messaging.Consume(ctx, broker, model.TopicBookingChanged, s.handleChange, s.logger)
}

func (s *Service) handleChange(_ context.Context, payload []byte) error {
	var change model.BookingChange
	if err := json.Unmarshal(payload, &change); err != nil {
		return fmt.Errorf("failed to decode booking change: %w", err)
	}
	if change.PractitionerID == nil {
		return nil
	}
	s.invalidate(*change.PractitionerID)
	return nil
}

func (s *Service) invalidate(practitionerID uuid.UUID) {
	prefix := cacheKey(practitionerID)
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
		}
	}
	s.metrics.CacheInvalidations.WithLabelValues("schedule").Inc()
}

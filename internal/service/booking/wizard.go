package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/carebook-api/internal/model"
)

// Step is a wizard page. Steps are strictly ordered.
type Step int

const (
	StepService Step = iota + 1
	StepDateTime
	StepDetails
	StepPayment
)

func (s Step) String() string {
	switch s {
	case StepService:
		return "service"
	case StepDateTime:
		return "date_time"
	case StepDetails:
		return "details"
	case StepPayment:
		return "payment"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

var (
	ErrStepIncomplete       = errors.New("current step is incomplete")
	ErrInvalidStep          = errors.New("invalid step")
	ErrLastStep             = errors.New("already at the last step")
	ErrInactiveService      = errors.New("service is not available")
	ErrPastDate             = errors.New("date must not be in the past")
	ErrInvalidTimeSlot      = errors.New("time must be a half-hour slot between 08:00 and 16:30")
	ErrInvalidGroupSize     = errors.New("group size must be at least 1")
	ErrInvalidPaymentMethod = errors.New("payment method must be online or pay-on-arrival")
)

const (
	firstSlot    = 8 * 60
	lastSlot     = 16*60 + 30
	slotInterval = 30
)

var timeSlots = func() []string {
	var slots []string
	for m := firstSlot; m <= lastSlot; m += slotInterval {
		slots = append(slots, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return slots
}()

// TimeSlots lists the bookable times of a day.
func TimeSlots() []string {
	out := make([]string, len(timeSlots))
	copy(out, timeSlots)
	return out
}

// ValidTimeSlot reports whether slot is on the booking grid.
func ValidTimeSlot(slot string) bool {
	for _, s := range timeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// Draft is the booking being assembled by the wizard.
type Draft struct {
	Service        *model.Service      `json:"service,omitempty"`
	CategoryFilter string              `json:"category_filter,omitempty"`
	Date           *time.Time          `json:"date,omitempty"`
	Time           string              `json:"time,omitempty"`
	LocationID     *uuid.UUID          `json:"location_id,omitempty"`
	PractitionerID *uuid.UUID          `json:"practitioner_id,omitempty"`
	GroupSize      int                 `json:"group_size"`
	Notes          string              `json:"notes,omitempty"`
	PaymentMethod  model.PaymentMethod `json:"payment_method"`
}

// ComputeTotal is the service price times the group size. A draft without a
// service costs nothing.
func ComputeTotal(d Draft) decimal.Decimal {
	if d.Service == nil {
		return decimal.Zero
	}
	size := d.GroupSize
	if size < 1 {
		size = 1
	}
	return d.Service.Price.Mul(decimal.NewFromInt(int64(size)))
}

// Wizard moves a Draft through the four booking steps. Going back keeps
// everything entered so far.
type Wizard struct {
	step  Step
	draft Draft
	today time.Time
}

// NewWizard starts at the service step. now decides which dates count as
// past: its calendar date in its own location is "today".
func NewWizard(now time.Time) *Wizard {
	y, m, d := now.Date()
	return &Wizard{
		step: StepService,
		draft: Draft{
			GroupSize:     1,
			PaymentMethod: model.PaymentMethodOnline,
		},
		today: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
	}
}

func (w *Wizard) Step() Step   { return w.step }
func (w *Wizard) Draft() Draft { return w.draft }

func (w *Wizard) Total() decimal.Decimal { return ComputeTotal(w.draft) }

func (w *Wizard) SelectService(svc *model.Service) error {
	if svc == nil || !svc.IsActive {
		return ErrInactiveService
	}
	w.draft.Service = svc
	return nil
}

func (w *Wizard) SetCategoryFilter(category string) {
	w.draft.CategoryFilter = category
}

// FilterServices returns the active services matching the category filter.
func (w *Wizard) FilterServices(services []*model.Service) []*model.Service {
	out := make([]*model.Service, 0, len(services))
	for _, svc := range services {
		if !svc.IsActive {
			continue
		}
		if w.draft.CategoryFilter != "" && svc.Category != w.draft.CategoryFilter {
			continue
		}
		out = append(out, svc)
	}
	return out
}

// SelectDate accepts today and later. Only the calendar day of date is kept.
func (w *Wizard) SelectDate(date time.Time) error {
	day := model.TruncateDay(date)
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(w.today) {
		return ErrPastDate
	}
	w.draft.Date = &day
	return nil
}

func (w *Wizard) SelectTime(slot string) error {
	if !ValidTimeSlot(slot) {
		return ErrInvalidTimeSlot
	}
	w.draft.Time = slot
	return nil
}

func (w *Wizard) SetLocation(id *uuid.UUID) {
	w.draft.LocationID = id
}

func (w *Wizard) SetPractitioner(id *uuid.UUID) {
	w.draft.PractitionerID = id
}

func (w *Wizard) SetGroupSize(n int) error {
	if n < 1 {
		return ErrInvalidGroupSize
	}
	w.draft.GroupSize = n
	return nil
}

func (w *Wizard) SetNotes(notes string) {
	w.draft.Notes = notes
}

func (w *Wizard) SetPaymentMethod(method model.PaymentMethod) error {
	if !method.Valid() {
		return ErrInvalidPaymentMethod
	}
	w.draft.PaymentMethod = method
	return nil
}

// CanAdvance reports whether step's guard passes for the current draft.
func (w *Wizard) CanAdvance(step Step) bool {
	switch step {
	case StepService:
		return w.draft.Service != nil
	case StepDateTime:
		return w.draft.Date != nil && w.draft.Time != ""
	case StepDetails, StepPayment:
		return true
	default:
		return false
	}
}

func (w *Wizard) Next() error {
	if w.step == StepPayment {
		return ErrLastStep
	}
	if !w.CanAdvance(w.step) {
		return fmt.Errorf("%w: %s", ErrStepIncomplete, w.step)
	}
	w.step++
	return nil
}

func (w *Wizard) Back() {
	if w.step > StepService {
		w.step--
	}
}

// GoTo jumps back to an earlier (or the current) step.
func (w *Wizard) GoTo(step Step) error {
	if step < StepService || step > w.step {
		return ErrInvalidStep
	}
	w.step = step
	return nil
}

// Ready reports whether the draft can be submitted.
func (w *Wizard) Ready() bool {
	return w.step == StepPayment &&
		w.CanAdvance(StepService) &&
		w.CanAdvance(StepDateTime) &&
		w.draft.PaymentMethod.Valid()
}

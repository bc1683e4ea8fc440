package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusNoShow    BookingStatus = "no-show"
)

type PaymentStatus string

const (
	PaymentStatusPending      PaymentStatus = "pending"
	PaymentStatusPaid         PaymentStatus = "paid"
	PaymentStatusFailed       PaymentStatus = "failed"
	PaymentStatusPayOnArrival PaymentStatus = "pay-on-arrival"
)

type PaymentMethod string

const (
	PaymentMethodOnline       PaymentMethod = "online"
	PaymentMethodPayOnArrival PaymentMethod = "pay-on-arrival"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodOnline || m == PaymentMethodPayOnArrival
}

// Booking is an appointment. Status and PaymentStatus move independently.
// TotalAmount is fixed when the row is created.
type Booking struct {
	Base
	UserID         uuid.UUID       `db:"user_id" json:"user_id"`
	ServiceID      uuid.UUID       `db:"service_id" json:"service_id"`
	LocationID     *uuid.UUID      `db:"location_id" json:"location_id,omitempty"`
	PractitionerID *uuid.UUID      `db:"practitioner_id" json:"practitioner_id,omitempty"`
	BookingDate    time.Time       `db:"booking_date" json:"booking_date"`
	BookingTime    string          `db:"booking_time" json:"booking_time"`
	GroupSize      int             `db:"group_size" json:"group_size"`
	SpecialNotes   *string         `db:"special_notes" json:"special_notes,omitempty"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status         BookingStatus   `db:"status" json:"status"`
	PaymentStatus  PaymentStatus   `db:"payment_status" json:"payment_status"`
	PaidAt         *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
}

// BookingDetail is a booking joined with the display names of its references.
type BookingDetail struct {
	Booking
	ServiceName      string  `db:"service_name" json:"service_name"`
	LocationName     *string `db:"location_name" json:"location_name,omitempty"`
	PractitionerName *string `db:"practitioner_name" json:"practitioner_name,omitempty"`
	PatientName      string  `db:"patient_name" json:"patient_name"`
	PatientEmail     string  `db:"patient_email" json:"patient_email"`
}

// StartsAt combines the booking date and slot time in loc.
func (b *Booking) StartsAt(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := b.BookingDate.Date()
	t, err := time.Parse("15:04", b.BookingTime)
	if err != nil {
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc)
}

// IsUpcoming reports whether the booking can still take place.
func (s BookingStatus) IsUpcoming() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled, BookingStatusNoShow},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoShow},
}

// CanTransitionTo reports whether from -> to is allowed. Completed, cancelled
// and no-show are terminal.
func (s BookingStatus) CanTransitionTo(to BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

type BookingFilters struct {
	UserID         *uuid.UUID
	PractitionerID *uuid.UUID
	Statuses       []BookingStatus
	DateRange
}

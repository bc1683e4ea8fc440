package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository"
)

const bookingColumns = `b.id, b.user_id, b.service_id, b.location_id, b.practitioner_id,
		b.booking_date, b.booking_time, b.group_size, b.special_notes, b.total_amount,
		b.status, b.payment_status, b.paid_at, b.created_at, b.updated_at`

const bookingDetailQuery = `
	SELECT ` + bookingColumns + `,
		s.name AS service_name,
		l.name AS location_name,
		p.name AS practitioner_name,
		u.full_name AS patient_name,
		u.email AS patient_email
	FROM bookings b
	JOIN services s ON s.id = b.service_id
	JOIN users u ON u.id = b.user_id
	LEFT JOIN locations l ON l.id = b.location_id
	LEFT JOIN practitioners p ON p.id = b.practitioner_id
`

type bookingRepository struct {
	BaseRepository
}

func NewBookingRepository(base BaseRepository) repository.BookingRepository {
	return &bookingRepository{base}
}

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (
			id, user_id, service_id, location_id, practitioner_id,
			booking_date, booking_time, group_size, special_notes, total_amount,
			status, payment_status, paid_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	booking.ID = uuid.New()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		booking.ID,
		booking.UserID,
		booking.ServiceID,
		booking.LocationID,
		booking.PractitionerID,
		booking.BookingDate,
		booking.BookingTime,
		booking.GroupSize,
		booking.SpecialNotes,
		booking.TotalAmount,
		booking.Status,
		booking.PaymentStatus,
		booking.PaidAt,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`

	var booking model.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, wrapGet(err, "booking")
	}
	return &booking, nil
}

func (r *bookingRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.BookingDetail, error) {
	query := bookingDetailQuery + ` WHERE b.id = $1`

	var detail model.BookingDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, wrapGet(err, "booking")
	}
	return &detail, nil
}

// List returns bookings ordered by date then time. Nil filters list everything.
func (r *bookingRepository) List(ctx context.Context, filters *model.BookingFilters) ([]*model.BookingDetail, error) {
	var conditions []string
	var args []interface{}

	if filters != nil {
		if filters.UserID != nil {
			args = append(args, *filters.UserID)
			conditions = append(conditions, fmt.Sprintf("b.user_id = $%d", len(args)))
		}
		if filters.PractitionerID != nil {
			args = append(args, *filters.PractitionerID)
			conditions = append(conditions, fmt.Sprintf("b.practitioner_id = $%d", len(args)))
		}
		if len(filters.Statuses) > 0 {
			statuses := make([]string, len(filters.Statuses))
			for i, s := range filters.Statuses {
				statuses[i] = string(s)
			}
			args = append(args, pq.Array(statuses))
			conditions = append(conditions, fmt.Sprintf("b.status = ANY($%d)", len(args)))
		}
		if filters.From != nil {
			args = append(args, *filters.From)
			conditions = append(conditions, fmt.Sprintf("b.booking_date >= $%d", len(args)))
		}
		if filters.To != nil {
			args = append(args, *filters.To)
			conditions = append(conditions, fmt.Sprintf("b.booking_date <= $%d", len(args)))
		}
	}

	query := bookingDetailQuery
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY b.booking_date, b.booking_time"

	bookings := []*model.BookingDetail{}
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus) error {
	query := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return requireAffected(result, "booking")
}

// UpdatePaymentStatus keeps an existing paid_at when paidAt is nil.
func (r *bookingRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus, paidAt *time.Time) error {
	query := `
		UPDATE bookings
		SET payment_status = $1, paid_at = COALESCE($2, paid_at), updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, status, paidAt, id)
	if err != nil {
		return fmt.Errorf("failed to update booking payment status: %w", err)
	}
	return requireAffected(result, "booking")
}

func (r *bookingRepository) HasPractitionerPatient(ctx context.Context, practitionerID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM bookings WHERE practitioner_id = $1 AND user_id = $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, practitionerID, userID); err != nil {
		return false, fmt.Errorf("failed to check practitioner patient: %w", err)
	}
	return exists, nil
}

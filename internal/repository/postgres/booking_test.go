package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository"
)

var detailColumns = []string{
	"id", "user_id", "service_id", "location_id", "practitioner_id",
	"booking_date", "booking_time", "group_size", "special_notes", "total_amount",
	"status", "payment_status", "paid_at", "created_at", "updated_at",
	"service_name", "location_name", "practitioner_name", "patient_name", "patient_email",
}

func TestBookingRepository_Create(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewBookingRepository(base)

	booking := &model.Booking{
		UserID:        uuid.New(),
		ServiceID:     uuid.New(),
		BookingDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		BookingTime:   "09:30",
		GroupSize:     2,
		TotalAmount:   decimal.NewFromInt(1000),
		Status:        model.BookingStatusPending,
		PaymentStatus: model.PaymentStatusPending,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), booking))
	assert.NotEqual(t, uuid.Nil, booking.ID)
	assert.False(t, booking.CreatedAt.IsZero())
}

func TestBookingRepository_GetDetailNotFound(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewBookingRepository(base)

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings b")).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetDetail(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBookingRepository_ListWithFilters(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewBookingRepository(base)

	userID := uuid.New()
	bookingID := uuid.New()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	rows := sqlmock.NewRows(detailColumns).AddRow(
		bookingID.String(), userID.String(), uuid.New().String(), nil, nil,
		date, "10:00", 1, nil, "500.00",
		"confirmed", "paid", now, now, now,
		"Massage", nil, nil, "Jane Doe", "jane@example.com",
	)

	mock.ExpectQuery(`WHERE b\.user_id = \$1 AND b\.status = ANY\(\$2\) AND b\.booking_date >= \$3 ORDER BY b\.booking_date, b\.booking_time`).
		WithArgs(userID, sqlmock.AnyArg(), date).
		WillReturnRows(rows)

	bookings, err := repo.List(context.Background(), &model.BookingFilters{
		UserID:    &userID,
		Statuses:  []model.BookingStatus{model.BookingStatusPending, model.BookingStatusConfirmed},
		DateRange: model.DateRange{From: &date},
	})
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, bookingID, bookings[0].ID)
	assert.Equal(t, "Massage", bookings[0].ServiceName)
	assert.Nil(t, bookings[0].PractitionerID)
	assert.True(t, decimal.NewFromInt(500).Equal(bookings[0].TotalAmount))
	assert.Equal(t, model.PaymentStatusPaid, bookings[0].PaymentStatus)
}

func TestBookingRepository_UpdatePaymentStatusMissingRow(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewBookingRepository(base)

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings")).
		WithArgs(model.PaymentStatusFailed, nil, id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePaymentStatus(context.Background(), id, model.PaymentStatusFailed, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBookingRepository_HasPractitionerPatient(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewBookingRepository(base)

	practitionerID, userID := uuid.New(), uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(practitionerID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.HasPractitionerPatient(context.Background(), practitionerID, userID)
	require.NoError(t, err)
	assert.True(t, ok)
}

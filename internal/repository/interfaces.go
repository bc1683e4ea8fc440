package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/carebook-api/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// All repository interfaces in one file
type (
	ServiceRepository interface {
		Create(ctx context.Context, service *model.Service) error
		Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
		Update(ctx context.Context, service *model.Service) error
		Deactivate(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, activeOnly bool, category string) ([]*model.Service, error)
		ListCategories(ctx context.Context) ([]string, error)
	}

	LocationRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Location, error)
		ListActive(ctx context.Context) ([]*model.Location, error)
	}

	PractitionerRepository interface {
		Create(ctx context.Context, practitioner *model.Practitioner) error
		Get(ctx context.Context, id uuid.UUID) (*model.Practitioner, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Practitioner, error)
		ListActive(ctx context.Context) ([]*model.Practitioner, error)
		Activate(ctx context.Context, id uuid.UUID) error
		CreateProfile(ctx context.Context, profile *model.PractitionerProfile) error
		UpdateProfile(ctx context.Context, profile *model.PractitionerProfile) error
	}

	BookingRepository interface {
		Create(ctx context.Context, booking *model.Booking) error
		Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
		GetDetail(ctx context.Context, id uuid.UUID) (*model.BookingDetail, error)
		List(ctx context.Context, filters *model.BookingFilters) ([]*model.BookingDetail, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus) error
		UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus, paidAt *time.Time) error
		HasPractitionerPatient(ctx context.Context, practitionerID, userID uuid.UUID) (bool, error)
	}

	PaymentRepository interface {
		Create(ctx context.Context, payment *model.Payment) error
		GetLatestByBooking(ctx context.Context, bookingID uuid.UUID) (*model.Payment, error)
		GetByAttemptID(ctx context.Context, attemptID uuid.UUID) (*model.Payment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.PaymentRecordStatus, gatewayPaymentID, method *string) error
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
		Delete(ctx context.Context, id uuid.UUID) error
		AssignRole(ctx context.Context, userID uuid.UUID, role model.Role) error
		ListRoles(ctx context.Context, userID uuid.UUID) ([]model.Role, error)
	}

	InvitationRepository interface {
		Create(ctx context.Context, invitation *model.Invitation) error
		GetByToken(ctx context.Context, token string) (*model.Invitation, error)
		MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) error
		ReleaseAcceptance(ctx context.Context, id uuid.UUID) error
	}

	AnalyticsRepository interface {
		BookingAnalytics(ctx context.Context, dates model.DateRange) (*model.BookingAnalytics, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// ClaimPending marks up to limit due events as processing and returns them.
		ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)

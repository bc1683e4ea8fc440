// Package mocks holds testify mocks for the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository"
)

var (
	_ repository.ServiceRepository      = (*ServiceRepository)(nil)
	_ repository.LocationRepository     = (*LocationRepository)(nil)
	_ repository.PractitionerRepository = (*PractitionerRepository)(nil)
	_ repository.BookingRepository      = (*BookingRepository)(nil)
	_ repository.PaymentRepository      = (*PaymentRepository)(nil)
	_ repository.UserRepository         = (*UserRepository)(nil)
	_ repository.InvitationRepository   = (*InvitationRepository)(nil)
	_ repository.AnalyticsRepository    = (*AnalyticsRepository)(nil)
	_ repository.OutboxRepository       = (*OutboxRepository)(nil)
)

type ServiceRepository struct{ mock.Mock }

func (m *ServiceRepository) Create(ctx context.Context, service *model.Service) error {
	return m.Called(ctx, service).Error(0)
}

func (m *ServiceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Service), args.Error(1)
}

func (m *ServiceRepository) Update(ctx context.Context, service *model.Service) error {
	return m.Called(ctx, service).Error(0)
}

func (m *ServiceRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *ServiceRepository) List(ctx context.Context, activeOnly bool, category string) ([]*model.Service, error) {
	args := m.Called(ctx, activeOnly, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Service), args.Error(1)
}

func (m *ServiceRepository) ListCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type LocationRepository struct{ mock.Mock }

func (m *LocationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Location), args.Error(1)
}

func (m *LocationRepository) ListActive(ctx context.Context) ([]*model.Location, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Location), args.Error(1)
}

type PractitionerRepository struct{ mock.Mock }

func (m *PractitionerRepository) Create(ctx context.Context, p *model.Practitioner) error {
	return m.Called(ctx, p).Error(0)
}

func (m *PractitionerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Practitioner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Practitioner), args.Error(1)
}

func (m *PractitionerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Practitioner, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Practitioner), args.Error(1)
}

func (m *PractitionerRepository) ListActive(ctx context.Context) ([]*model.Practitioner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Practitioner), args.Error(1)
}

func (m *PractitionerRepository) Activate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *PractitionerRepository) CreateProfile(ctx context.Context, profile *model.PractitionerProfile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *PractitionerRepository) UpdateProfile(ctx context.Context, profile *model.PractitionerProfile) error {
	return m.Called(ctx, profile).Error(0)
}

type BookingRepository struct{ mock.Mock }

func (m *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

func (m *BookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *BookingRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.BookingDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingDetail), args.Error(1)
}

func (m *BookingRepository) List(ctx context.Context, filters *model.BookingFilters) ([]*model.BookingDetail, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.BookingDetail), args.Error(1)
}

func (m *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *BookingRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus, paidAt *time.Time) error {
	return m.Called(ctx, id, status, paidAt).Error(0)
}

func (m *BookingRepository) HasPractitionerPatient(ctx context.Context, practitionerID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, practitionerID, userID)
	return args.Bool(0), args.Error(1)
}

type PaymentRepository struct{ mock.Mock }

func (m *PaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *PaymentRepository) GetLatestByBooking(ctx context.Context, bookingID uuid.UUID) (*model.Payment, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *PaymentRepository) GetByAttemptID(ctx context.Context, attemptID uuid.UUID) (*model.Payment, error) {
	args := m.Called(ctx, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *PaymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PaymentRecordStatus, gatewayPaymentID, method *string) error {
	return m.Called(ctx, id, status, gatewayPaymentID, method).Error(0)
}

type UserRepository struct{ mock.Mock }

func (m *UserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *UserRepository) AssignRole(ctx context.Context, userID uuid.UUID, role model.Role) error {
	return m.Called(ctx, userID, role).Error(0)
}

func (m *UserRepository) ListRoles(ctx context.Context, userID uuid.UUID) ([]model.Role, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Role), args.Error(1)
}

type InvitationRepository struct{ mock.Mock }

func (m *InvitationRepository) Create(ctx context.Context, invitation *model.Invitation) error {
	return m.Called(ctx, invitation).Error(0)
}

func (m *InvitationRepository) GetByToken(ctx context.Context, token string) (*model.Invitation, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invitation), args.Error(1)
}

func (m *InvitationRepository) MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *InvitationRepository) ReleaseAcceptance(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type AnalyticsRepository struct{ mock.Mock }

func (m *AnalyticsRepository) BookingAnalytics(ctx context.Context, dates model.DateRange) (*model.BookingAnalytics, error) {
	args := m.Called(ctx, dates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingAnalytics), args.Error(1)
}

type OutboxRepository struct{ mock.Mock }

func (m *OutboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *OutboxRepository) ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.OutboxEvent), args.Error(1)
}

func (m *OutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string, retryAt *time.Time) error {
	return m.Called(ctx, id, errorMessage, retryAt).Error(0)
}

func (m *OutboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

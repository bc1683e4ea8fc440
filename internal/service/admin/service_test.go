package admin

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository"
	"github.com/jwalitptl/carebook-api/internal/repository/mocks"
	"github.com/jwalitptl/carebook-api/internal/session"
	apperrors "github.com/jwalitptl/carebook-api/pkg/errors"
)

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate() { c.calls++ }

type fixture struct {
	svc       *Service
	services  *mocks.ServiceRepository
	analytics *mocks.AnalyticsRepository
	catalog   *countingInvalidator
	admin     *session.Session
}

func newFixture() *fixture {
	f := &fixture{
		services:  new(mocks.ServiceRepository),
		analytics: new(mocks.AnalyticsRepository),
		catalog:   &countingInvalidator{},
		admin:     &session.Session{UserID: uuid.New(), Roles: []model.Role{model.RoleAdmin}},
	}
	f.svc = NewService(f.services, f.analytics, f.catalog, zerolog.Nop())
	return f
}

func TestAdminOnly(t *testing.T) {
	f := newFixture()
	practitioner := &session.Session{UserID: uuid.New(), Roles: []model.Role{model.RolePractitioner}}

	_, err := f.svc.ListServices(context.Background(), practitioner)
	assert.Equal(t, http.StatusForbidden, apperrors.StatusOf(err))

	_, err = f.svc.Analytics(context.Background(), nil, model.DateRange{})
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(err))

	err = f.svc.DeactivateService(context.Background(), practitioner, uuid.New())
	assert.Equal(t, http.StatusForbidden, apperrors.StatusOf(err))

	f.services.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	f.services.AssertNotCalled(t, "Deactivate", mock.Anything, mock.Anything)
}

func TestListServices_IncludesInactive(t *testing.T) {
	f := newFixture()
	all := []*model.Service{{Name: "Massage", IsActive: true}, {Name: "Old", IsActive: false}}
	f.services.On("List", mock.Anything, false, "").Return(all, nil)

	got, err := f.svc.ListServices(context.Background(), f.admin)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCreateService(t *testing.T) {
	f := newFixture()
	f.services.On("Create", mock.Anything, mock.MatchedBy(func(s *model.Service) bool {
		return s.Name == "Deep tissue" && s.IsActive && s.Price.Equal(decimal.NewFromInt(450))
	})).Return(nil)

	svc, err := f.svc.CreateService(context.Background(), f.admin, &model.CreateServiceRequest{
		Name:     "  Deep tissue ",
		Category: "Massage",
		Price:    decimal.NewFromInt(450),
		Duration: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, "Deep tissue", svc.Name)
	assert.Equal(t, 1, f.catalog.calls)
}

func TestCreateService_RejectsNegativePrice(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateService(context.Background(), f.admin, &model.CreateServiceRequest{
		Name:     "Refund",
		Category: "Misc",
		Price:    decimal.NewFromInt(-1),
		Duration: 30,
	})
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))
	f.services.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Zero(t, f.catalog.calls)
}

func TestUpdateService_AppliesOnlyProvidedFields(t *testing.T) {
	f := newFixture()
	existing := &model.Service{Name: "Facial", Category: "Skin", Price: decimal.NewFromInt(300), Duration: 45, IsActive: true}
	existing.ID = uuid.New()
	f.services.On("Get", mock.Anything, existing.ID).Return(existing, nil)
	f.services.On("Update", mock.Anything, existing).Return(nil)

	price := decimal.RequireFromString("325.50")
	inactive := false
	got, err := f.svc.UpdateService(context.Background(), f.admin, existing.ID, &model.UpdateServiceRequest{Price: &price, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Facial", got.Name)
	assert.Equal(t, 45, got.Duration)
	assert.True(t, got.Price.Equal(price))
	assert.False(t, got.IsActive)
	assert.Equal(t, 1, f.catalog.calls)
}

func TestUpdateService_NotFound(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	f.services.On("Get", mock.Anything, id).Return(nil, repository.ErrNotFound)

	_, err := f.svc.UpdateService(context.Background(), f.admin, id, &model.UpdateServiceRequest{})
	assert.Equal(t, http.StatusNotFound, apperrors.StatusOf(err))
}

func TestDeactivateService(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	f.services.On("Deactivate", mock.Anything, id).Return(nil)

	require.NoError(t, f.svc.DeactivateService(context.Background(), f.admin, id))
	assert.Equal(t, 1, f.catalog.calls)

	missing := uuid.New()
	f.services.On("Deactivate", mock.Anything, missing).Return(repository.ErrNotFound)
	err := f.svc.DeactivateService(context.Background(), f.admin, missing)
	assert.Equal(t, http.StatusNotFound, apperrors.StatusOf(err))
}

func TestAnalytics(t *testing.T) {
	f := newFixture()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	dates := model.DateRange{From: &from, To: &to}
	want := &model.BookingAnalytics{TotalBookings: 12, PaidRevenue: decimal.NewFromInt(3600)}
	f.analytics.On("BookingAnalytics", mock.Anything, dates).Return(want, nil)

	got, err := f.svc.Analytics(context.Background(), f.admin, dates)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = f.svc.Analytics(context.Background(), f.admin, model.DateRange{From: &to, To: &from})
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))
}

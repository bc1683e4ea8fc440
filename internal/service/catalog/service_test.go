package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository/mocks"
	"github.com/jwalitptl/carebook-api/pkg/metrics"
)

func newTestService() (*Service, *mocks.ServiceRepository, *mocks.LocationRepository, *mocks.PractitionerRepository) {
	services := new(mocks.ServiceRepository)
	locations := new(mocks.LocationRepository)
	practitioners := new(mocks.PractitionerRepository)
	return NewService(services, locations, practitioners, time.Minute, metrics.New("test")), services, locations, practitioners
}

func TestService_ListServicesIsCachedPerCategory(t *testing.T) {
	svc, services, _, _ := newTestService()

	massage := []*model.Service{{Name: "Massage", Category: "wellness"}}
	all := []*model.Service{{Name: "Massage"}, {Name: "Checkup"}}
	services.On("List", mock.Anything, true, "wellness").Return(massage, nil).Once()
	services.On("List", mock.Anything, true, "").Return(all, nil).Once()

	for i := 0; i < 3; i++ {
		got, err := svc.ListServices(context.Background(), "wellness")
		require.NoError(t, err)
		assert.Equal(t, massage, got)
	}
	got, err := svc.ListServices(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	services.AssertExpectations(t)
}

func TestService_InvalidateRefetches(t *testing.T) {
	svc, _, locations, _ := newTestService()

	locations.On("ListActive", mock.Anything).Return([]*model.Location{{Name: "Cape Town"}}, nil).Twice()

	_, err := svc.ListLocations(context.Background())
	require.NoError(t, err)
	svc.Invalidate()
	_, err = svc.ListLocations(context.Background())
	require.NoError(t, err)

	locations.AssertExpectations(t)
}

func TestService_ErrorsAreNotCached(t *testing.T) {
	svc, _, _, practitioners := newTestService()

	practitioners.On("ListActive", mock.Anything).Return(nil, errors.New("db down")).Once()
	practitioners.On("ListActive", mock.Anything).Return([]*model.Practitioner{{Name: "Dr Mokoena"}}, nil).Once()

	_, err := svc.ListPractitioners(context.Background())
	assert.Error(t, err)

	got, err := svc.ListPractitioners(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

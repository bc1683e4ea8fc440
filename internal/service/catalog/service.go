package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository"
	"github.com/jwalitptl/carebook-api/pkg/metrics"
)

// CatalogServicer is the read side of the catalog. Only active rows are
// returned.
type CatalogServicer interface {
	ListServices(ctx context.Context, category string) ([]*model.Service, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListLocations(ctx context.Context) ([]*model.Location, error)
	ListPractitioners(ctx context.Context) ([]*model.Practitioner, error)
	Invalidate()
}

const (
	keyServices      = "services:"
	keyCategories    = "categories"
	keyLocations     = "locations"
	keyPractitioners = "practitioners"
)

type Service struct {
	services      repository.ServiceRepository
	locations     repository.LocationRepository
	practitioners repository.PractitionerRepository
	cache         *cache.Cache
	metrics       *metrics.Metrics
}

func NewService(
	services repository.ServiceRepository,
	locations repository.LocationRepository,
	practitioners repository.PractitionerRepository,
	ttl time.Duration,
	m *metrics.Metrics,
) *Service {
	return &Service{
		services:      services,
		locations:     locations,
		practitioners: practitioners,
		cache:         cache.New(ttl, 2*ttl),
		metrics:       m,
	}
}

func (s *Service) ListServices(ctx context.Context, category string) ([]*model.Service, error) {
	key := keyServices + category
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*model.Service), nil
	}

	services, err := s.services.List(ctx, true, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	s.cache.SetDefault(key, services)
	return services, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]string, error) {
	if cached, ok := s.cache.Get(keyCategories); ok {
		return cached.([]string), nil
	}

	categories, err := s.services.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	s.cache.SetDefault(keyCategories, categories)
	return categories, nil
}

func (s *Service) ListLocations(ctx context.Context) ([]*model.Location, error) {
	if cached, ok := s.cache.Get(keyLocations); ok {
		return cached.([]*model.Location), nil
	}

	locations, err := s.locations.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	s.cache.SetDefault(keyLocations, locations)
	return locations, nil
}

func (s *Service) ListPractitioners(ctx context.Context) ([]*model.Practitioner, error) {
	if cached, ok := s.cache.Get(keyPractitioners); ok {
		return cached.([]*model.Practitioner), nil
	}

	practitioners, err := s.practitioners.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list practitioners: %w", err)
	}
	s.cache.SetDefault(keyPractitioners, practitioners)
	return practitioners, nil
}

// Invalidate drops every cached listing. Called after admin writes.
func (s *Service) Invalidate() {
	s.cache.Flush()
	if s.metrics != nil {
		s.metrics.CacheInvalidations.WithLabelValues("catalog").Inc()
	}
}

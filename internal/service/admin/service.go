package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository"
	"github.com/jwalitptl/carebook-api/internal/session"
	apperrors "github.com/jwalitptl/carebook-api/pkg/errors"
)

// CatalogInvalidator drops cached catalog reads after a write.
type CatalogInvalidator interface {
	Invalidate()
}

type AdminServicer interface {
	ListServices(ctx context.Context, sess *session.Session) ([]*model.Service, error)
	CreateService(ctx context.Context, sess *session.Session, req *model.CreateServiceRequest) (*model.Service, error)
	UpdateService(ctx context.Context, sess *session.Session, id uuid.UUID, req *model.UpdateServiceRequest) (*model.Service, error)
	DeactivateService(ctx context.Context, sess *session.Session, id uuid.UUID) error
	Analytics(ctx context.Context, sess *session.Session, dates model.DateRange) (*model.BookingAnalytics, error)
}

type Service struct {
	services  repository.ServiceRepository
	analytics repository.AnalyticsRepository
	catalog   CatalogInvalidator
	logger    zerolog.Logger
}

func NewService(
	services repository.ServiceRepository,
	analytics repository.AnalyticsRepository,
	catalog CatalogInvalidator,
	logger zerolog.Logger,
) *Service {
	return &Service{
		services:  services,
		analytics: analytics,
		catalog:   catalog,
		logger:    logger,
	}
}

func requireAdmin(sess *session.Session) error {
	if sess == nil {
		return apperrors.Unauthorized(session.ErrUnauthenticated)
	}
	if !sess.IsAdmin() {
		return apperrors.Forbidden("admin role required")
	}
	return nil
}

// ListServices returns every service, including deactivated ones.
func (s *Service) ListServices(ctx context.Context, sess *session.Session) ([]*model.Service, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	services, err := s.services.List(ctx, false, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

func (s *Service) CreateService(ctx context.Context, sess *session.Session, req *model.CreateServiceRequest) (*model.Service, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	service := &model.Service{
		Name:        strings.TrimSpace(req.Name),
		Category:    strings.TrimSpace(req.Category),
		Description: req.Description,
		Price:       req.Price,
		Duration:    req.Duration,
		IsActive:    true,
	}
	if err := validateService(service); err != nil {
		return nil, err
	}

	if err := s.services.Create(ctx, service); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	s.catalog.Invalidate()

	s.logger.Info().Str("service_id", service.ID.String()).Str("name", service.Name).Msg("Service created")
	return service, nil
}

// UpdateService applies the non-nil fields of req.
func (s *Service) UpdateService(ctx context.Context, sess *session.Session, id uuid.UUID, req *model.UpdateServiceRequest) (*model.Service, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	service, err := s.services.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("service", err)
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}

	if req.Name != nil {
		service.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		service.Category = strings.TrimSpace(*req.Category)
	}
	if req.Description != nil {
		service.Description = *req.Description
	}
	if req.Price != nil {
		service.Price = *req.Price
	}
	if req.Duration != nil {
		service.Duration = *req.Duration
	}
	if req.IsActive != nil {
		service.IsActive = *req.IsActive
	}
	if err := validateService(service); err != nil {
		return nil, err
	}

	if err := s.services.Update(ctx, service); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("service", err)
		}
		return nil, fmt.Errorf("failed to update service: %w", err)
	}
	s.catalog.Invalidate()
	return service, nil
}

// DeactivateService hides the service from the catalog. Existing bookings
// keep their reference.
func (s *Service) DeactivateService(ctx context.Context, sess *session.Session, id uuid.UUID) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if err := s.services.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("service", err)
		}
		return fmt.Errorf("failed to deactivate service: %w", err)
	}
	s.catalog.Invalidate()

	s.logger.Info().Str("service_id", id.String()).Msg("Service deactivated")
	return nil
}

func (s *Service) Analytics(ctx context.Context, sess *session.Session, dates model.DateRange) (*model.BookingAnalytics, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	if dates.From != nil && dates.To != nil && dates.To.Before(*dates.From) {
		return nil, apperrors.BadRequest("to must not be before from", nil)
	}

	analytics, err := s.analytics.BookingAnalytics(ctx, dates)
	if err != nil {
		return nil, fmt.Errorf("failed to compute analytics: %w", err)
	}
	return analytics, nil
}

func validateService(service *model.Service) error {
	switch {
	case service.Name == "":
		return apperrors.BadRequest("name is required", nil)
	case service.Category == "":
		return apperrors.BadRequest("category is required", nil)
	case service.Price.IsNegative():
		return apperrors.BadRequest("price must not be negative", nil)
	case service.Duration <= 0:
		return apperrors.BadRequest("duration must be positive", nil)
	}
	return nil
}

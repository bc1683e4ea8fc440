package invitation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/carebook-api/internal/email"
	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository"
	"github.com/jwalitptl/carebook-api/internal/service/event"
	"github.com/jwalitptl/carebook-api/internal/session"
	apperrors "github.com/jwalitptl/carebook-api/pkg/errors"
	"github.com/jwalitptl/carebook-api/pkg/metrics"
	"github.com/jwalitptl/carebook-api/pkg/security"
)

// TokenTTL is how long an onboarding link stays valid.
const TokenTTL = 7 * 24 * time.Hour

var ErrInvitationUnusable = errors.New("invitation is invalid, expired or already used")

type InvitationServicer interface {
	Invite(ctx context.Context, sess *session.Session, req *model.InviteRequest) (*model.InviteResponse, error)
	Accept(ctx context.Context, req *model.OnboardingRequest) (*model.Practitioner, error)
}

type Service struct {
	users         repository.UserRepository
	practitioners repository.PractitionerRepository
	invitations   repository.InvitationRepository
	hasher        security.PasswordHasher
	mailer        email.Service
	events        event.Emitter
	siteURL       string
	metrics       *metrics.Metrics
	logger        zerolog.Logger
	now           func() time.Time
	newToken      func() string
}

func NewService(
	users repository.UserRepository,
	practitioners repository.PractitionerRepository,
	invitations repository.InvitationRepository,
	hasher security.PasswordHasher,
	mailer email.Service,
	events event.Emitter,
	siteURL string,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		users:         users,
		practitioners: practitioners,
		invitations:   invitations,
		hasher:        hasher,
		mailer:        mailer,
		events:        events,
		siteURL:       strings.TrimRight(siteURL, "/"),
		metrics:       m,
		logger:        logger,
		now:           time.Now,
		newToken:      newToken,
	}
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// Invite provisions a practitioner account. Only the account and the
// practitioner record are rolled back together; later steps are best-effort.
func (s *Service) Invite(ctx context.Context, sess *session.Session, req *model.InviteRequest) (*model.InviteResponse, error) {
	if sess == nil {
		return nil, apperrors.Unauthorized(session.ErrUnauthenticated)
	}
	if !sess.IsAdmin() {
		s.metrics.Invitations.WithLabelValues("rejected").Inc()
		return nil, apperrors.Forbidden("admin role required")
	}

	addr := strings.ToLower(strings.TrimSpace(req.Email))
	logger := s.logger.With().Str("email", addr).Logger()

	hash, err := s.hasher.Hash(req.TemporaryPassword)
	if err != nil {
		s.metrics.Invitations.WithLabelValues("rejected").Inc()
		return nil, apperrors.BadRequest("invalid temporary password", err)
	}

	if _, err := s.users.GetByEmail(ctx, addr); err == nil {
		s.metrics.Invitations.WithLabelValues("rejected").Inc()
		return nil, apperrors.BadRequest("a user with this email already exists", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.metrics.Invitations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	user := &model.User{
		Email:          addr,
		PasswordHash:   hash,
		FullName:       strings.TrimSpace(req.Name),
		EmailConfirmed: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.metrics.Invitations.WithLabelValues("error").Inc()
		return nil, apperrors.BadRequest("failed to create user account", err)
	}

	practitioner := &model.Practitioner{
		UserID:         &user.ID,
		Name:           user.FullName,
		Email:          addr,
		Title:          strings.TrimSpace(req.Title),
		Specialization: strings.TrimSpace(req.Specialization),
		IsActive:       false,
	}
	if err := s.practitioners.Create(ctx, practitioner); err != nil {
		logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to create practitioner, removing user account")
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			logger.Error().Err(delErr).Str("user_id", user.ID.String()).Msg("Failed to roll back user account")
		}
		s.metrics.Invitations.WithLabelValues("rolled_back").Inc()
		return nil, apperrors.Upstream("failed to create practitioner record", err)
	}
	logger = logger.With().Str("practitioner_id", practitioner.ID.String()).Logger()

	if err := s.users.AssignRole(ctx, user.ID, model.RolePractitioner); err != nil {
		logger.Warn().Err(err).Msg("Failed to assign practitioner role")
	}

	var ref *model.InvitationRef
	inv := &model.Invitation{
		PractitionerID: practitioner.ID,
		Token:          s.newToken(),
		ExpiresAt:      s.now().Add(TokenTTL),
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		logger.Warn().Err(err).Msg("Failed to create invitation token")
	} else {
		ref = &model.InvitationRef{ID: inv.ID, Token: inv.Token}
	}

	if err := s.practitioners.CreateProfile(ctx, &model.PractitionerProfile{PractitionerID: practitioner.ID}); err != nil {
		logger.Warn().Err(err).Msg("Failed to create practitioner profile")
	}

	message := "Invitation sent"
	mail := email.Invitation{
		To:                addr,
		Name:              practitioner.Name,
		Title:             practitioner.Title,
		TemporaryPassword: req.TemporaryPassword,
	}
	if ref != nil {
		mail.OnboardingURL = s.onboardingURL(ref.Token)
	}
	if err := s.mailer.SendInvitation(ctx, mail); err != nil {
		logger.Warn().Err(err).Msg("Failed to send invitation email")
		message = "Practitioner created, but the invitation email could not be sent"
	}

	if err := s.events.Emit(ctx, model.EventStaffInvited, map[string]interface{}{
		"practitioner_id": practitioner.ID,
		"user_id":         user.ID,
		"invited_by":      sess.UserID,
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to record staff.invited event")
	}

	s.metrics.Invitations.WithLabelValues("created").Inc()
	logger.Info().Msg("Practitioner invited")

	return &model.InviteResponse{
		Success:      true,
		Practitioner: practitioner,
		Invitation:   ref,
		Message:      message,
	}, nil
}

func (s *Service) onboardingURL(token string) string {
	return s.siteURL + "/auth?" + url.Values{"token": {token}}.Encode()
}

// Accept completes onboarding: the practitioner picks a password and becomes
// bookable.
func (s *Service) Accept(ctx context.Context, req *model.OnboardingRequest) (*model.Practitioner, error) {
	now := s.now()

	inv, err := s.invitations.GetByToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.BadRequest(ErrInvitationUnusable.Error(), err)
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	if !inv.Usable(now) {
		return nil, apperrors.BadRequest(ErrInvitationUnusable.Error(), nil)
	}

	practitioner, err := s.practitioners.Get(ctx, inv.PractitionerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get practitioner: %w", err)
	}
	if practitioner.UserID == nil {
		return nil, apperrors.BadRequest("practitioner has no user account", nil)
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return nil, apperrors.BadRequest("invalid password", err)
	}

	// Claim the invitation before touching the account so only one request
	// per token gets to set a password.
	if err := s.invitations.MarkAccepted(ctx, inv.ID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.BadRequest(ErrInvitationUnusable.Error(), err)
		}
		return nil, fmt.Errorf("failed to accept invitation: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, *practitioner.UserID, hash); err != nil {
		s.releaseInvitation(ctx, inv.ID)
		return nil, fmt.Errorf("failed to set password: %w", err)
	}
	if err := s.practitioners.Activate(ctx, practitioner.ID); err != nil {
		s.releaseInvitation(ctx, inv.ID)
		return nil, fmt.Errorf("failed to activate practitioner: %w", err)
	}
	practitioner.IsActive = true

	if err := s.practitioners.UpdateProfile(ctx, &model.PractitionerProfile{
		PractitionerID: practitioner.ID,
		Bio:            strings.TrimSpace(req.Bio),
		Languages:      strings.TrimSpace(req.Languages),
	}); err != nil {
		s.logger.Warn().Err(err).Str("practitioner_id", practitioner.ID.String()).Msg("Failed to save onboarding profile")
	}

	s.logger.Info().Str("practitioner_id", practitioner.ID.String()).Msg("Practitioner onboarded")
	return practitioner, nil
}

// releaseInvitation reopens a claimed invitation after onboarding failed
// part way, so the practitioner can retry with the same link.
func (s *Service) releaseInvitation(ctx context.Context, id uuid.UUID) {
	if err := s.invitations.ReleaseAcceptance(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("invitation_id", id.String()).Msg("Failed to reopen invitation")
	}
}

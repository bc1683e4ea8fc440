// Package session resolves bearer tokens into the caller's identity and roles.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository"
	"github.com/jwalitptl/carebook-api/pkg/auth"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrRevoked         = errors.New("session has been signed out")
)

// Session is the authenticated caller. Roles are loaded from user_roles, not
// from the token, so role changes apply once the role cache expires.
type Session struct {
	UserID    uuid.UUID    `json:"user_id"`
	Email     string       `json:"email"`
	Roles     []model.Role `json:"roles"`
	TokenID   string       `json:"-"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func (s *Session) HasRole(role model.Role) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (s *Session) IsPatient() bool      { return s.HasRole(model.RolePatient) }
func (s *Session) IsPractitioner() bool { return s.HasRole(model.RolePractitioner) }
func (s *Session) IsAdmin() bool        { return s.HasRole(model.RoleAdmin) }

type Provider struct {
	tokens  auth.JWTService
	users   repository.UserRepository
	revoked RevocationStore
	roles   *cache.Cache
	now     func() time.Time
}

func NewProvider(tokens auth.JWTService, users repository.UserRepository, revoked RevocationStore, rolesTTL time.Duration) *Provider {
	if rolesTTL <= 0 {
		rolesTTL = 5 * time.Minute
	}
	return &Provider{
		tokens:  tokens,
		users:   users,
		revoked: revoked,
		roles:   cache.New(rolesTTL, 2*rolesTTL),
		now:     time.Now,
	}
}

// Resolve validates the token, rejects signed-out tokens and attaches roles.
func (p *Provider) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := p.tokens.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	revoked, err := p.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrRevoked
	}

	roles, err := p.Roles(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		UserID:  claims.UserID,
		Email:   claims.Email,
		Roles:   roles,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

// Roles returns the cached role set of a user.
func (p *Provider) Roles(ctx context.Context, userID uuid.UUID) ([]model.Role, error) {
	key := userID.String()
	if cached, ok := p.roles.Get(key); ok {
		return cached.([]model.Role), nil
	}

	roles, err := p.users.ListRoles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	p.roles.SetDefault(key, roles)
	return roles, nil
}

// Invalidate signs the session out. The token stays revoked until it would
// have expired anyway.
func (p *Provider) Invalidate(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}
	p.InvalidateRoles(sess.UserID)

	if sess.TokenID == "" {
		return nil
	}
	ttl := sess.ExpiresAt.Sub(p.now())
	if ttl <= 0 {
		return nil
	}
	if err := p.revoked.Revoke(ctx, sess.TokenID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// InvalidateRoles drops the cached roles of a user, e.g. after a role grant.
func (p *Provider) InvalidateRoles(userID uuid.UUID) {
	p.roles.Delete(userID.String())
}

type ctxKey struct{}

func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the session stored by WithSession, or nil.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(ctxKey{}).(*Session)
	return sess
}

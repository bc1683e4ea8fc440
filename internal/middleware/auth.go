package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/session"
	apperrors "github.com/jwalitptl/carebook-api/pkg/errors"
)

const ContextSession = "session"

type AuthMiddleware struct {
	sessions *session.Provider
}

func NewAuthMiddleware(sessions *session.Provider) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Authenticate resolves the bearer token into a session and stores it in both
// the gin context and the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWith(c, apperrors.Unauthorized(session.ErrUnauthenticated))
			return
		}

		sess, err := m.sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, session.ErrUnauthenticated) || errors.Is(err, session.ErrRevoked) {
				abortWith(c, apperrors.Unauthorized(err))
				return
			}
			abortWith(c, apperrors.Internal(err))
			return
		}

		c.Set(ContextSession, sess)
		c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), sess))
		c.Next()
	}
}

// RequireRole rejects sessions holding none of roles. It must run after
// Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if sess == nil {
			abortWith(c, apperrors.Unauthorized(session.ErrUnauthenticated))
			return
		}
		for _, role := range roles {
			if sess.HasRole(role) {
				c.Next()
				return
			}
		}
		abortWith(c, apperrors.Forbidden("insufficient role"))
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortWith(c *gin.Context, err error) {
	status, body := Render(err)
	body.TraceID = c.GetString(ContextRequestID)
	c.AbortWithStatusJSON(status, body)
}

package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/carebook-api/config"
	adminHandler "github.com/jwalitptl/carebook-api/internal/handler/admin"
	authHandler "github.com/jwalitptl/carebook-api/internal/handler/auth"
	bookingHandler "github.com/jwalitptl/carebook-api/internal/handler/booking"
	catalogHandler "github.com/jwalitptl/carebook-api/internal/handler/catalog"
	checkoutHandler "github.com/jwalitptl/carebook-api/internal/handler/checkout"
	"github.com/jwalitptl/carebook-api/internal/handler/health"
	invitationHandler "github.com/jwalitptl/carebook-api/internal/handler/invitation"
	promHandler "github.com/jwalitptl/carebook-api/internal/handler/prometheus"
	scheduleHandler "github.com/jwalitptl/carebook-api/internal/handler/schedule"
	webhookHandler "github.com/jwalitptl/carebook-api/internal/handler/webhook"
	"github.com/jwalitptl/carebook-api/internal/middleware"
	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository/mocks"
	catalogService "github.com/jwalitptl/carebook-api/internal/service/catalog"
	"github.com/jwalitptl/carebook-api/internal/session"
	"github.com/jwalitptl/carebook-api/pkg/auth"
	"github.com/jwalitptl/carebook-api/pkg/metrics"
	"github.com/jwalitptl/carebook-api/pkg/payment"
)

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

type routerFixture struct {
	engine   *gin.Engine
	tokens   *auth.TokenManager
	users    *mocks.UserRepository
	services *mocks.ServiceRepository
}

// newRouterFixture wires the real router around a real catalog service and
// session provider. Other services are nil: routes reaching them are only
// used to check that the middleware in front rejects the request.
func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: gin.TestMode, RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 20},
		Cache:     config.CacheConfig{CatalogTTL: time.Minute},
		RateLimit: config.RateLimitConfig{Enabled: false},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
	}

	f := &routerFixture{
		tokens:   auth.NewTokenManager("router-secret", "carebook-test", time.Hour),
		users:    new(mocks.UserRepository),
		services: new(mocks.ServiceRepository),
	}
	sessions := session.NewProvider(f.tokens, f.users, session.NewMemoryRevocationStore(), time.Minute)

	verifier, err := payment.NewSignatureVerifier("", 0)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	catalogSvc := catalogService.NewService(f.services, new(mocks.LocationRepository), new(mocks.PractitionerRepository), time.Minute, metrics.New("test"))

	r := NewRouter(cfg, middleware.NewAuthMiddleware(sessions), Handlers{
		Health:     health.NewHandler(map[string]health.Pinger{"postgres": okPinger{}}),
		Metrics:    promHandler.New("carebook_test", reg, reg),
		Auth:       authHandler.NewHandler(nil),
		Catalog:    catalogHandler.NewHandler(catalogSvc),
		Booking:    bookingHandler.NewHandler(nil),
		Checkout:   checkoutHandler.NewHandler(nil),
		Webhook:    webhookHandler.NewHandler(nil, verifier, zerolog.Nop()),
		Schedule:   scheduleHandler.NewHandler(nil),
		Admin:      adminHandler.NewHandler(nil),
		Invitation: invitationHandler.NewHandler(nil),
	}, zerolog.Nop())
	r.Setup()
	f.engine = r.Engine()
	return f
}

func (f *routerFixture) tokenWithRoles(t *testing.T, roles ...model.Role) string {
	t.Helper()
	userID := uuid.New()
	f.users.On("ListRoles", mock.Anything, userID).Return(roles, nil)
	token, _, err := f.tokens.GenerateAccessToken(userID, "user@example.com")
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicRoutes(t *testing.T) {
	f := newRouterFixture(t)
	f.services.On("ListCategories", mock.Anything).Return([]string{"Wellness", "Vitamins"}, nil)

	w := f.do(http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/api/v1/catalog/categories", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Wellness")
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRouter_ProtectedRoutesNeedSession(t *testing.T) {
	f := newRouterFixture(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/bookings/mine"},
		{http.MethodPost, "/api/v1/checkout"},
		{http.MethodPost, "/api/v1/auth/logout"},
		{http.MethodGet, "/api/v1/practitioner/schedule"},
		{http.MethodGet, "/api/v1/admin/services"},
		{http.MethodPost, "/api/v1/admin/invitations"},
	} {
		w := f.do(route.method, route.path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}

func TestRouter_RoleGates(t *testing.T) {
	f := newRouterFixture(t)
	patientToken := f.tokenWithRoles(t, model.RolePatient)
	practitionerToken := f.tokenWithRoles(t, model.RolePractitioner)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/v1/practitioner/schedule?view=year", patientToken).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/v1/admin/services", patientToken).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/v1/admin/invitations", practitionerToken).Code)

	// The schedule belongs to a practitioner record, which an admin-only
	// user does not have.
	adminToken := f.tokenWithRoles(t, model.RoleAdmin)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/v1/practitioner/schedule?view=year", adminToken).Code)

	// Past the role gate the handler runs: an unknown view is rejected
	// before the service is touched.
	w := f.do(http.MethodGet, "/api/v1/practitioner/schedule?view=year", practitionerToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestRouter_Metrics(t *testing.T) {
	f := newRouterFixture(t)

	f.do(http.MethodGet, "/health/live", "")
	w := f.do(http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `carebook_test_http_requests_total{method="GET",path="/health/live",status="200"} 1`)
}

func TestRouter_UnknownRoute(t *testing.T) {
	f := newRouterFixture(t)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/v1/nope", "").Code)
}

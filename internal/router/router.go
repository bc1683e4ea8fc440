package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/carebook-api/config"
	"github.com/jwalitptl/carebook-api/internal/handler/admin"
	"github.com/jwalitptl/carebook-api/internal/handler/auth"
	"github.com/jwalitptl/carebook-api/internal/handler/booking"
	"github.com/jwalitptl/carebook-api/internal/handler/catalog"
	"github.com/jwalitptl/carebook-api/internal/handler/checkout"
	"github.com/jwalitptl/carebook-api/internal/handler/health"
	"github.com/jwalitptl/carebook-api/internal/handler/invitation"
	"github.com/jwalitptl/carebook-api/internal/handler/prometheus"
	"github.com/jwalitptl/carebook-api/internal/handler/schedule"
	"github.com/jwalitptl/carebook-api/internal/handler/webhook"
	"github.com/jwalitptl/carebook-api/internal/middleware"
	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/pkg/validator"
)

// Handlers is everything the API serves. All fields are required.
type Handlers struct {
	Health     *health.Handler
	Metrics    *prometheus.Handler
	Auth       *auth.Handler
	Catalog    *catalog.Handler
	Booking    *booking.Handler
	Checkout   *checkout.Handler
	Webhook    *webhook.Handler
	Schedule   *schedule.Handler
	Admin      *admin.Handler
	Invitation *invitation.Handler
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	cfg      *config.Config
}

func NewRouter(cfg *config.Config, auth *middleware.AuthMiddleware, handlers Handlers, logger zerolog.Logger) *Router {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	validator.Engine()
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		cfg:      cfg,
	}

	// Recovery runs first so a panic anywhere below still gets a response;
	// ErrorHandler runs last so it sees the errors handlers attached.
	engine.Use(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		handlers.Metrics.Middleware(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(cfg.CORS),
		middleware.SizeLimit(cfg.Server.MaxBodyBytes),
		middleware.Timeout(cfg.Server.RequestTimeout),
	)
	if cfg.RateLimit.Enabled {
		engine.Use(middleware.NewRateLimiter(cfg.RateLimit).RateLimit())
	}
	engine.Use(middleware.ErrorHandler(logger))

	return r
}

func (r *Router) Setup() {
	r.handlers.Health.RegisterRoutes(r.engine)
	r.engine.GET("/metrics", r.handlers.Metrics.Handler())

	api := r.engine.Group("/api/v1")

	r.setupPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate(), middleware.NoStore())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	catalogGroup := rg.Group("")
	catalogGroup.Use(middleware.CacheControl(r.cfg.Cache.CatalogTTL))
	r.handlers.Catalog.RegisterRoutes(catalogGroup)

	r.handlers.Webhook.RegisterRoutes(rg)
	r.handlers.Auth.RegisterRoutes(rg)
	r.handlers.Invitation.RegisterPublicRoutes(rg)
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	r.handlers.Auth.RegisterProtectedRoutes(rg)
	r.handlers.Booking.RegisterRoutes(rg)
	r.handlers.Checkout.RegisterRoutes(rg)

	practitioner := rg.Group("")
	practitioner.Use(r.auth.RequireRole(model.RolePractitioner))
	r.handlers.Schedule.RegisterRoutes(practitioner)

	admins := rg.Group("")
	admins.Use(r.auth.RequireRole(model.RoleAdmin))
	r.handlers.Admin.RegisterRoutes(admins)
	r.handlers.Invitation.RegisterRoutes(admins)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

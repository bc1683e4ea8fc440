package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/carebook-api/config"
	"github.com/jwalitptl/carebook-api/internal/email"
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
	"github.com/jwalitptl/carebook-api/internal/repository/postgres"
	"github.com/jwalitptl/carebook-api/internal/router"
	adminService "github.com/jwalitptl/carebook-api/internal/service/admin"
	authService "github.com/jwalitptl/carebook-api/internal/service/auth"
	bookingService "github.com/jwalitptl/carebook-api/internal/service/booking"
	catalogService "github.com/jwalitptl/carebook-api/internal/service/catalog"
	checkoutService "github.com/jwalitptl/carebook-api/internal/service/checkout"
	eventService "github.com/jwalitptl/carebook-api/internal/service/event"
	invitationService "github.com/jwalitptl/carebook-api/internal/service/invitation"
	scheduleService "github.com/jwalitptl/carebook-api/internal/service/schedule"
	webhookService "github.com/jwalitptl/carebook-api/internal/service/webhook"
	"github.com/jwalitptl/carebook-api/internal/session"
	"github.com/jwalitptl/carebook-api/pkg/auth"
	"github.com/jwalitptl/carebook-api/pkg/logger"
	"github.com/jwalitptl/carebook-api/pkg/messaging/redis"
	"github.com/jwalitptl/carebook-api/pkg/metrics"
	"github.com/jwalitptl/carebook-api/pkg/payment"
	"github.com/jwalitptl/carebook-api/pkg/security"
)

// redisPinger adapts the Redis client to the readiness check.
type redisPinger struct {
	client *goredis.Client
}

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Console:    cfg.Log.Console,
	})
	appLogger.SetGlobal()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			appLogger.Fatal(err, "Failed to apply schema")
		}
	}

	redisClient, err := redis.NewClient(ctx, cfg.Redis.ToBrokerConfig())
	if err != nil {
		appLogger.Fatal(err, "Failed to connect to Redis")
	}
	defer redisClient.Close()

	broker := redis.NewRedisBroker(redisClient, appLogger.Component("broker"))
	defer broker.Close()

	m := metrics.NewMetrics("carebook", "api")

	// Repositories
	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	serviceRepo := postgres.NewServiceRepository(base)
	locationRepo := postgres.NewLocationRepository(base)
	practitionerRepo := postgres.NewPractitionerRepository(base)
	bookingRepo := postgres.NewBookingRepository(base)
	paymentRepo := postgres.NewPaymentRepository(base)
	invitationRepo := postgres.NewInvitationRepository(base)
	analyticsRepo := postgres.NewAnalyticsRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	// Sessions
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry())
	sessions := session.NewProvider(tokens, userRepo, session.NewRedisRevocationStore(redisClient), cfg.Cache.RolesTTL)
	hasher := security.NewBcryptHasher(cfg.JWT.BcryptCost)

	// Payment
	var gateway payment.Gateway
	if cfg.Payment.Provider == "stub" {
		appLogger.Warn("Using stub payment gateway")
		gateway = payment.StubGateway{}
	} else {
		gateway = payment.NewHTTPGateway(payment.HTTPConfig{
			BaseURL:   cfg.Payment.BaseURL,
			SecretKey: cfg.Payment.SecretKey,
			Timeout:   cfg.Payment.Timeout,
		})
	}
	verifier, err := payment.NewSignatureVerifier(cfg.Payment.WebhookSecret, cfg.Payment.WebhookTolerance)
	if err != nil {
		appLogger.Fatal(err, "Invalid webhook secret")
	}

	// Services
	events := eventService.NewEventService(outboxRepo, appLogger.Component("events"))
	catalogSvc := catalogService.NewService(serviceRepo, locationRepo, practitionerRepo, cfg.Cache.CatalogTTL, m)
	checkoutSvc := checkoutService.NewService(bookingRepo, paymentRepo, gateway, cfg.Payment.Currency, m, appLogger.Component("checkout"))
	clinicTZ, err := cfg.Booking.Location()
	if err != nil {
		appLogger.Fatal(err, "Invalid booking timezone")
	}
	bookingSvc := bookingService.NewService(bookingRepo, serviceRepo, checkoutSvc, events, cfg.Payment.SiteURL, clinicTZ, m, appLogger.Component("booking"))
	webhookSvc := webhookService.NewService(bookingRepo, paymentRepo, events, m, appLogger.Component("webhook"))
	scheduleSvc := scheduleService.NewService(bookingRepo, practitionerRepo, userRepo, events, cfg.Cache.ScheduleTTL, m, appLogger.Component("schedule"))
	adminSvc := adminService.NewService(serviceRepo, analyticsRepo, catalogSvc, appLogger.Component("admin"))
	authSvc := authService.NewService(userRepo, tokens, hasher, sessions, appLogger.Component("auth"))
	invitationSvc := invitationService.NewService(
		userRepo,
		practitionerRepo,
		invitationRepo,
		hasher,
		email.NewService(cfg.Email, appLogger.Component("email")),
		events,
		cfg.Payment.SiteURL,
		m,
		appLogger.Component("invitation"),
	)

	go func() {
		if err := scheduleSvc.Listen(ctx, broker); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error(err, "Schedule listener stopped")
		}
	}()

	r := router.NewRouter(cfg, middleware.NewAuthMiddleware(sessions), router.Handlers{
		Health: health.NewHandler(map[string]health.Pinger{
			"postgres": db,
			"redis":    redisPinger{client: redisClient},
		}),
		Metrics:    promHandler.New("carebook", prometheus.DefaultRegisterer, prometheus.DefaultGatherer),
		Auth:       authHandler.NewHandler(authSvc),
		Catalog:    catalogHandler.NewHandler(catalogSvc),
		Booking:    bookingHandler.NewHandler(bookingSvc),
		Checkout:   checkoutHandler.NewHandler(checkoutSvc),
		Webhook:    webhookHandler.NewHandler(webhookSvc, verifier, appLogger.Component("webhook")),
		Schedule:   scheduleHandler.NewHandler(scheduleSvc),
		Admin:      adminHandler.NewHandler(adminSvc),
		Invitation: invitationHandler.NewHandler(invitationSvc),
	}, appLogger.Component("http"))
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(err, "Failed to start server")
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "Server forced to shutdown")
		os.Exit(1)
	}

	appLogger.Info("Server exited properly")
}

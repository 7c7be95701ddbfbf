package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/evanperkins/frontdesk/internal"
	"github.com/evanperkins/frontdesk/internal/billing"
	"github.com/evanperkins/frontdesk/internal/handler/api"
	"github.com/evanperkins/frontdesk/internal/handler/webhook"
	"github.com/evanperkins/frontdesk/internal/middleware"
	"github.com/evanperkins/frontdesk/internal/repository"
	"github.com/evanperkins/frontdesk/internal/router"
	"github.com/evanperkins/frontdesk/internal/routes"
	"github.com/evanperkins/frontdesk/internal/service"
	"github.com/evanperkins/frontdesk/internal/telemetry"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize Sentry error tracking
	sentryCleanup, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer sentryCleanup()

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	// Verify database connection
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := repository.NewPool(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize repository
	repo := repository.NewStore(pool)

	// Initialize Stripe billing provider
	logger.Info("Initializing Stripe billing provider...")
	billingProvider, err := billing.NewStripeProvider(cfg.BillingConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Stripe provider: %w", err)
	}

	// Initialize services
	invoiceService := service.NewInvoiceService(repo, billingProvider, logger)
	connectService := service.NewConnectService(repo, billingProvider, service.ConnectConfig{
		ClientID:    cfg.Stripe.ConnectClientID,
		RedirectURI: cfg.Stripe.ConnectRedirectURI,
	}, logger)
	composer := service.NewComposer(repo, invoiceService, logger)

	// Initialize metrics
	metrics := middleware.NewMetrics("frontdesk")
	telemetry.InitBusinessMetrics("frontdesk")

	// ==========================================================================
	// Build route dependencies
	// ==========================================================================

	apiDeps := routes.APIDeps{
		InvoiceHandler: api.NewInvoiceHandler(composer, invoiceService, logger),
		ConnectHandler: api.NewConnectHandler(connectService, cfg.DashboardURL, logger),
		SourceHandler:  api.NewSourceHandler(repo, composer, logger),
		RequireUser:    middleware.RequireUser(cfg.AuthSecret),
	}

	stripeWebhookHandler := webhook.NewStripeHandler(billingProvider, repo, cfg.Stripe.WebhookSecret, logger)
	webhookDeps := routes.WebhookDeps{
		StripeHandler: stripeWebhookHandler.HandleWebhook,
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		metrics.Middleware,
		telemetry.SentryMiddleware(),
		router.CORS([]string{cfg.DashboardURL}),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
	)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	routes.RegisterAPIRoutes(r, apiDeps)
	routes.RegisterWebhookRoutes(r, webhookDeps)
	routes.RegisterMetricsRoutes(r, routes.MetricsDeps{MetricsHandler: metrics.Handler()})

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	logger.Info("Server stopped")

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

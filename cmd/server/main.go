package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/praxislegal/praxis/internal"
	"github.com/praxislegal/praxis/internal/dispatch"
	"github.com/praxislegal/praxis/internal/email"
	"github.com/praxislegal/praxis/internal/handler"
	"github.com/praxislegal/praxis/internal/middleware"
	"github.com/praxislegal/praxis/internal/postgres"
	"github.com/praxislegal/praxis/internal/router"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

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
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize record store services
	identityService := postgres.NewIdentityService(pool)
	clientService := postgres.NewClientService(pool)
	templateService := postgres.NewTemplateService(pool)
	emailLogService := postgres.NewEmailLogService(pool)
	activityService := postgres.NewActivityService(pool)

	// Initialize email transport: Postmark when a token is configured,
	// SMTP otherwise (the local mailpit default in development)
	var sender email.Sender
	if cfg.Email.PostmarkToken != "" {
		sender = email.NewPostmarkSender(cfg.Email.PostmarkToken)
		logger.Info("Email transport initialized", "provider", "postmark")
	} else {
		sender = email.NewSMTPSender(&email.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     int(cfg.Email.Port),
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
		}, logger)
		logger.Info("Email transport initialized", "provider", "smtp", "host", cfg.Email.Host)
	}

	// Initialize dispatch pipelines
	dispatcher := dispatch.NewDispatcher(
		clientService,
		templateService,
		emailLogService,
		activityService,
		sender,
		dispatch.Config{
			FromAddress: cfg.Email.From,
			FromName:    cfg.Email.FromName,
			FirmName:    cfg.Firm.Name,
			FirmAddress: cfg.Firm.Address,
			FirmPhone:   cfg.Firm.Phone,
			FirmEmail:   cfg.Firm.Email,
		},
		logger,
	)

	emailHandler := handler.NewEmailHandler(dispatcher, logger)

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	// Initialize Prometheus metrics
	metrics := middleware.NewMetrics("praxis")

	// Configure per-user send quotas
	rateLimiter := middleware.NewUserRateLimiter(middleware.RateLimitConfig{
		PerMinute:       cfg.RateLimit.PerMinute,
		PerHour:         cfg.RateLimit.PerHour,
		CleanupInterval: 5 * time.Minute,
	})
	defer rateLimiter.Stop()

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		metrics.Middleware,
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		router.Logger(logger),
	)

	// Metrics endpoint (no auth required, but should be protected in production via firewall)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics.Handler().ServeHTTP(w, req)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Send endpoints: token auth on all three, per-user quotas on the
	// generic send only
	api := r.Group(middleware.BearerAuth(identityService, logger))
	api.Post("/api/send-email", emailHandler.SendEmail, rateLimiter.Middleware)
	api.Post("/api/send-invoice-email", emailHandler.SendInvoiceEmail)
	api.Post("/api/send-client-communication", emailHandler.SendClientCommunication)

	// ==========================================================================
	// Start server
	// ==========================================================================

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Starting server", "address", addr)

	if err := http.ListenAndServe(addr, r); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

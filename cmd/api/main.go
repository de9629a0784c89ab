package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coachdesk_backend/internal/adapters"
	"coachdesk_backend/internal/analytics"
	"coachdesk_backend/internal/checkins"
	"coachdesk_backend/internal/clients"
	"coachdesk_backend/internal/email"
	"coachdesk_backend/internal/events"
	"coachdesk_backend/internal/exports"
	apphttp "coachdesk_backend/internal/http"
	"coachdesk_backend/internal/notification"
	"coachdesk_backend/internal/payments"
	paymentsservice "coachdesk_backend/internal/payments/service"
	"coachdesk_backend/internal/payments/stripe"
	"coachdesk_backend/internal/scheduler"
	"coachdesk_backend/internal/storage"
	"coachdesk_backend/migrations"
	"coachdesk_backend/platform/config"
	"coachdesk_backend/platform/db"
	"coachdesk_backend/platform/logger"
	"coachdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Stripe API client (optional; payment sync is disabled without it)
	var stripeAPI paymentsservice.StripeAPI
	if cfg.IsStripeEnabled() {
		stripeAPI = stripe.New(cfg.GetStripeAPIKey(), cfg.GetStripeAPIBaseURL())
		log.Info("stripe client initialized")
	} else {
		log.Warn("STRIPE_API_KEY not configured; payment sync disabled")
	}

	// Background job client (optional; manual sync triggering is disabled
	// without it, the scheduler binary runs the actual jobs)
	var enqueuer paymentsservice.SyncEnqueuer
	if cfg.GetRedisURL() != "" {
		schedClient, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize scheduler client", "error", err)
			panic("failed to initialize scheduler client: " + err.Error())
		}
		defer func() { _ = schedClient.Close() }()
		enqueuer = schedClient
	} else {
		log.Warn("REDIS_URL not configured; background jobs disabled")
	}

	// Object storage for CSV exports (optional)
	var store storage.ObjectStore
	if cfg.IsMinIOEnabled() {
		minioStore, err := storage.NewMinIOStore(cfg)
		if err != nil {
			log.Error("failed to initialize storage", "error", err)
			panic("failed to initialize storage: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure exports bucket", 5, 2*time.Second, func() error {
			return minioStore.EnsureBucketExists(ctx, cfg.GetMinioBucketExports())
		}); err != nil {
			log.Error("failed to ensure exports bucket", "error", err, "bucket", cfg.GetMinioBucketExports())
			panic("failed to ensure exports bucket: " + err.Error())
		}
		store = minioStore
		log.Info("storage initialized", "exportsBucket", cfg.GetMinioBucketExports())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; exports disabled")
	}

	// Email sender for coach notifications
	var sender email.Sender = email.NoopSender{}
	if cfg.IsEmailEnabled() {
		sender = email.NewSMTPSender(
			cfg.GetSMTPHost(), cfg.GetSMTPPort(),
			cfg.GetSMTPUsername(), cfg.GetSMTPPassword(),
			cfg.GetEmailFromAddress(), cfg.GetEmailFromName(),
		)
		log.Info("email sender initialized", "host", cfg.GetSMTPHost())
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	clientsModule := clients.NewModule(pool, eventBus, val, log)

	clientDirectory := adapters.NewClientDirectory(clientsModule.Repository())
	paymentsModule := payments.NewModule(pool, stripeAPI, clientDirectory, enqueuer, eventBus, log)

	clientChecker := adapters.NewClientChecker(clientsModule.Repository())
	checkinsModule := checkins.NewModule(pool, clientChecker, eventBus, val, log)

	analyticsModule := analytics.NewModule(clientsModule.Repository(), paymentsModule.Repository(), log)
	exportsModule := exports.NewModule(clientsModule.Repository(), paymentsModule.Repository(), store, cfg.GetMinioBucketExports(), log)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.NewModule(sender, cfg.GetCoachNotifyAddress(), log)
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			clientsModule,
			paymentsModule,
			checkinsModule,
			analyticsModule,
			exportsModule,
		},
	}

	engine := apphttp.NewRouter(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coachdesk_backend/internal/adapters"
	"coachdesk_backend/internal/clients"
	"coachdesk_backend/internal/email"
	"coachdesk_backend/internal/events"
	"coachdesk_backend/internal/notification"
	"coachdesk_backend/internal/payments"
	paymentsservice "coachdesk_backend/internal/payments/service"
	"coachdesk_backend/internal/payments/stripe"
	"coachdesk_backend/internal/scheduler"
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
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	// Stage-change notifications fire from the sweep, so the worker process
	// carries the email wiring too.
	var sender email.Sender = email.NoopSender{}
	if cfg.IsEmailEnabled() {
		sender = email.NewSMTPSender(
			cfg.GetSMTPHost(), cfg.GetSMTPPort(),
			cfg.GetSMTPUsername(), cfg.GetSMTPPassword(),
			cfg.GetEmailFromAddress(), cfg.GetEmailFromName(),
		)
	}
	notificationModule := notification.NewModule(sender, cfg.GetCoachNotifyAddress(), log)
	notificationModule.RegisterHandlers(eventBus)

	// Worker-side domain wiring (no HTTP handlers required).
	clientsModule := clients.NewModule(pool, eventBus, val, log)

	var stripeAPI paymentsservice.StripeAPI
	if cfg.IsStripeEnabled() {
		stripeAPI = stripe.New(cfg.GetStripeAPIKey(), cfg.GetStripeAPIBaseURL())
	} else {
		log.Warn("STRIPE_API_KEY not configured; sync tasks will be skipped")
	}
	clientDirectory := adapters.NewClientDirectory(clientsModule.Repository())
	paymentsModule := payments.NewModule(pool, stripeAPI, clientDirectory, nil, eventBus, log)

	var syncer scheduler.PaymentSyncer
	if stripeAPI != nil {
		syncer = paymentsModule.Service()
	}

	worker, err := scheduler.NewWorker(cfg, clientsModule.Service(), syncer, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	enqueueClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = enqueueClient.Close() }()

	go runPeriodic(ctx, log, "progress sweep", cfg.GetProgressSweepInterval(), enqueueClient.EnqueueProgressSweep)
	if stripeAPI != nil {
		go runPeriodic(ctx, log, "stripe sync", cfg.GetStripeSyncInterval(), enqueueClient.EnqueueStripeSync)
	}

	worker.Run(ctx)
}

// runPeriodic enqueues the task once per interval until the context ends.
func runPeriodic(ctx context.Context, log *logger.Logger, name string, interval time.Duration, enqueue func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := enqueue(ctx); err != nil {
				log.Error("failed to enqueue periodic task", "task", name, "error", err)
			}
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

package scheduler

import (
	"context"
	"fmt"

	paymentstransport "coachdesk_backend/internal/payments/transport"
	"coachdesk_backend/platform/config"
	"coachdesk_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// ProgressSweeper applies automatic stage transitions. Implemented by the
// clients service.
type ProgressSweeper interface {
	SweepProgress(ctx context.Context) (int, error)
}

// PaymentSyncer runs one Stripe synchronization pass. Implemented by the
// payments service.
type PaymentSyncer interface {
	Sync(ctx context.Context) (paymentstransport.SyncStats, error)
}

// Worker consumes background tasks from the shared queue.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	sweeper ProgressSweeper
	syncer  PaymentSyncer
	log     *logger.Logger
}

// NewWorker creates the asynq worker. syncer may be nil when Stripe is not
// configured; sync tasks then complete as no-ops.
func NewWorker(cfg config.SchedulerConfig, sweeper ProgressSweeper, syncer PaymentSyncer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		sweeper: sweeper,
		syncer:  syncer,
		log:     log,
	}

	mux.HandleFunc(TaskProgressSweep, w.handleProgressSweep)
	mux.HandleFunc(TaskStripeSync, w.handleStripeSync)

	return w, nil
}

func (w *Worker) handleProgressSweep(ctx context.Context, _ *asynq.Task) error {
	if w.sweeper == nil {
		return nil
	}

	transitions, err := w.sweeper.SweepProgress(ctx)
	if err != nil {
		w.log.JobEvent(TaskProgressSweep, "failed", "error", err)
		return err
	}
	w.log.JobEvent(TaskProgressSweep, "completed", "transitions", transitions)
	return nil
}

func (w *Worker) handleStripeSync(ctx context.Context, _ *asynq.Task) error {
	if w.syncer == nil {
		w.log.JobEvent(TaskStripeSync, "skipped", "reason", "stripe not configured")
		return nil
	}

	stats, err := w.syncer.Sync(ctx)
	if err != nil {
		w.log.JobEvent(TaskStripeSync, "failed", "error", err)
		return err
	}
	w.log.JobEvent(TaskStripeSync, "completed",
		"charges", stats.ChargesSeen,
		"upserted", stats.PaymentsUpserted,
		"linked", stats.ClientsLinked,
	)
	return nil
}

// Run starts the worker and blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

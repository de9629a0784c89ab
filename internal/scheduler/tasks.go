package scheduler

import "github.com/hibiken/asynq"

// TaskProgressSweep applies derived-progress stage transitions to persisted
// client records.
const TaskProgressSweep = "clients.progress_sweep"

// TaskStripeSync pulls charges and subscriptions from Stripe and recomputes
// revenue figures.
const TaskStripeSync = "payments.stripe_sync"

// Both tasks are full-dataset passes, so they carry no payload.

func NewProgressSweepTask() *asynq.Task {
	return asynq.NewTask(TaskProgressSweep, nil)
}

func NewStripeSyncTask() *asynq.Task {
	return asynq.NewTask(TaskStripeSync, nil)
}

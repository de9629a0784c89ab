package service

import (
	"context"

	"github.com/google/uuid"
)

// LinkedClient is the slice of a client record the payment sync needs.
type LinkedClient struct {
	ID               uuid.UUID
	StripeCustomerID *string
}

// RevenueFigures carries recomputed monetary fields for one client.
type RevenueFigures struct {
	ClientID             uuid.UUID
	LifetimeRevenueCents int64
	EstimatedMRRCents    int64
}

// ClientDirectory is the port into the clients context. The adapter lives in
// internal/adapters so neither bounded context imports the other directly.
type ClientDirectory interface {
	// FindByStripeCustomerID resolves a client by processor customer id.
	// Returns apperr.NotFound when no client matches.
	FindByStripeCustomerID(ctx context.Context, stripeCustomerID string) (LinkedClient, error)
	// FindByEmail resolves a client by email. The adapter normalizes the
	// address with the same rules the identity grouping uses.
	FindByEmail(ctx context.Context, email string) (LinkedClient, error)
	// StripeCustomerIDs returns the distinct Stripe customer ids attached to
	// the given clients.
	StripeCustomerIDs(ctx context.Context, clientIDs []uuid.UUID) ([]string, error)
	// ApplyRevenue writes recomputed monetary fields. Implementations must
	// never decrease stored values.
	ApplyRevenue(ctx context.Context, figures []RevenueFigures) error
}

// SyncEnqueuer schedules a background Stripe sync run.
type SyncEnqueuer interface {
	EnqueueStripeSync(ctx context.Context) error
}

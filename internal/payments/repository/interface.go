package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Payment status values mirror Stripe's charge outcomes.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusRefunded  = "refunded"
)

// Payment is the persistence model for one payment record.
type Payment struct {
	ID               uuid.UUID
	StripePaymentID  *string
	StripeCustomerID *string
	ClientID         *uuid.UUID
	AmountCents      int64
	Currency         string
	Status           string
	SubscriptionID   *string
	PaidAt           time.Time
	CreatedAt        time.Time
}

// UpsertParams carries one synced payment. StripePaymentID is the dedup key;
// manual entries without one always insert.
type UpsertParams struct {
	StripePaymentID  *string
	StripeCustomerID *string
	ClientID         *uuid.UUID
	AmountCents      int64
	Currency         string
	Status           string
	SubscriptionID   *string
	PaidAt           time.Time
}

// MonthRevenue is one calendar month's succeeded payment total.
type MonthRevenue struct {
	Month       time.Time
	AmountCents int64
}

// ClientRevenue is the succeeded payment total attributed to one client.
type ClientRevenue struct {
	ClientID    uuid.UUID
	AmountCents int64
}

// Repository provides payment persistence operations.
type Repository interface {
	// Upsert writes a payment keyed by stripe_payment_id. The bool reports
	// whether a new row was inserted.
	Upsert(ctx context.Context, params UpsertParams) (Payment, bool, error)
	// ListForIdentity returns payments attached to any of the client ids or
	// Stripe customer ids, deduplicated by stripe_payment_id.
	ListForIdentity(ctx context.Context, clientIDs []uuid.UUID, stripeCustomerIDs []string) ([]Payment, error)
	// ListAll returns every payment, newest first.
	ListAll(ctx context.Context) ([]Payment, error)
	// SucceededTotalsByClient sums succeeded payments per linked client.
	SucceededTotalsByClient(ctx context.Context) ([]ClientRevenue, error)
	// MonthlyRevenue sums succeeded payments per calendar month over the most
	// recent months.
	MonthlyRevenue(ctx context.Context, months int) ([]MonthRevenue, error)
}

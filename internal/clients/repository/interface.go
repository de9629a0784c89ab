package repository

import (
	"context"
	"time"

	"coachdesk_backend/internal/clients/domain"

	"github.com/google/uuid"
)

// Client is the persistence model for a client record.
type Client struct {
	ID                   uuid.UUID
	FirstName            string
	LastName             string
	Email                *string
	Phone                *string
	LifecycleState       string
	EstimatedMRRCents    int64
	LifetimeRevenueCents int64
	ProgramStartDate     *time.Time
	ProgramEndDate       *time.Time
	ProgramDurationDays  *int
	StripeCustomerID     *string
	SortOrders           map[string]int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ToDomain converts the persistence model to the domain record used by the
// consolidation rules.
func (c Client) ToDomain() domain.Record {
	sortOrders := make(map[domain.Stage]int, len(c.SortOrders))
	for stage, order := range c.SortOrders {
		sortOrders[domain.Stage(stage)] = order
	}
	return domain.Record{
		ID:                   c.ID,
		FirstName:            c.FirstName,
		LastName:             c.LastName,
		Email:                c.Email,
		Phone:                c.Phone,
		Stage:                domain.Stage(c.LifecycleState),
		EstimatedMRRCents:    c.EstimatedMRRCents,
		LifetimeRevenueCents: c.LifetimeRevenueCents,
		ProgramStartDate:     c.ProgramStartDate,
		ProgramEndDate:       c.ProgramEndDate,
		ProgramDurationDays:  c.ProgramDurationDays,
		StripeCustomerID:     c.StripeCustomerID,
		SortOrders:           sortOrders,
		CreatedAt:            c.CreatedAt,
	}
}

// ListParams filters the client list.
type ListParams struct {
	LifecycleState *string
	Search         string
}

// CreateParams contains parameters for creating a client record.
type CreateParams struct {
	FirstName           string
	LastName            string
	Email               *string
	Phone               *string
	LifecycleState      string
	ProgramStartDate    *time.Time
	ProgramEndDate      *time.Time
	ProgramDurationDays *int
	StripeCustomerID    *string
}

// SortOrderUpdate assigns a card its position within one stage column.
type SortOrderUpdate struct {
	ClientID uuid.UUID
	Position int
}

// RevenueUpdate carries recomputed monetary fields for one client.
type RevenueUpdate struct {
	ClientID             uuid.UUID
	LifetimeRevenueCents int64
	EstimatedMRRCents    int64
}

// ClientReader provides read operations for client records.
type ClientReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Client, error)
	List(ctx context.Context, params ListParams) ([]Client, error)
	GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (Client, error)
	GetByNormalizedEmail(ctx context.Context, normalizedEmail string) (Client, error)
}

// ClientWriter provides write operations for client records.
type ClientWriter interface {
	Create(ctx context.Context, params CreateParams) (Client, error)
	Save(ctx context.Context, client Client) (Client, error)
	Delete(ctx context.Context, ids []uuid.UUID) error
	UpdateStage(ctx context.Context, id uuid.UUID, stage string, clearProgram bool) (Client, error)
	UpdateSortOrders(ctx context.Context, stage string, updates []SortOrderUpdate) error
	UpdateRevenue(ctx context.Context, updates []RevenueUpdate) error
}

// Repository combines all client repository operations.
type Repository interface {
	ClientReader
	ClientWriter
}

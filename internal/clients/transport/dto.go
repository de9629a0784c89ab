package transport

import (
	"time"

	"github.com/google/uuid"
)

// LifecycleState mirrors the pipeline stages on the wire.
type LifecycleState string

const (
	LifecycleStateColdLead    LifecycleState = "cold_lead"
	LifecycleStateWarmLead    LifecycleState = "warm_lead"
	LifecycleStateActive      LifecycleState = "active"
	LifecycleStateOffboarding LifecycleState = "offboarding"
	LifecycleStateDead        LifecycleState = "dead"
)

// Request DTOs

type CreateClientRequest struct {
	FirstName           string         `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName            string         `json:"lastName,omitempty" validate:"omitempty,max=100"`
	Email               *string        `json:"email,omitempty" validate:"omitempty,max=320"`
	Phone               *string        `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	LifecycleState      LifecycleState `json:"lifecycleState,omitempty" validate:"omitempty,oneof=cold_lead warm_lead active offboarding dead"`
	ProgramStartDate    *string        `json:"programStartDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ProgramEndDate      *string        `json:"programEndDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ProgramDurationDays *int           `json:"programDurationDays,omitempty" validate:"omitempty,min=1"`
	StripeCustomerID    *string        `json:"stripeCustomerId,omitempty" validate:"omitempty,max=100"`
}

type UpdateClientRequest struct {
	FirstName           *string        `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName            *string        `json:"lastName,omitempty" validate:"omitempty,max=100"`
	Email               OptionalString `json:"email,omitempty" validate:"-"`
	Phone               OptionalString `json:"phone,omitempty" validate:"-"`
	LifecycleState      *LifecycleState `json:"lifecycleState,omitempty" validate:"omitempty,oneof=cold_lead warm_lead active offboarding dead"`
	ProgramStartDate    OptionalDate   `json:"programStartDate,omitempty" validate:"-"`
	ProgramEndDate      OptionalDate   `json:"programEndDate,omitempty" validate:"-"`
	ProgramDurationDays OptionalInt    `json:"programDurationDays,omitempty" validate:"-"`
	StripeCustomerID    OptionalString `json:"stripeCustomerId,omitempty" validate:"-"`
}

type MoveClientRequest struct {
	TargetState LifecycleState `json:"targetState" validate:"required,oneof=cold_lead warm_lead active offboarding dead"`
	TargetIndex *int           `json:"targetIndex,omitempty" validate:"omitempty,min=0"`
}

type ReorderColumnRequest struct {
	ClientID    uuid.UUID `json:"clientId" validate:"required"`
	TargetIndex int       `json:"targetIndex" validate:"min=0"`
}

type ListClientsRequest struct {
	LifecycleState *LifecycleState `form:"lifecycleState" validate:"omitempty,oneof=cold_lead warm_lead active offboarding dead"`
	Search         string          `form:"search" validate:"max=100"`
}

// Response DTOs

type ClientResponse struct {
	ID                     uuid.UUID      `json:"id"`
	FirstName              string         `json:"firstName"`
	LastName               string         `json:"lastName"`
	Email                  *string        `json:"email,omitempty"`
	Phone                  *string        `json:"phone,omitempty"`
	LifecycleState         LifecycleState `json:"lifecycleState"`
	EstimatedMRRCents      int64          `json:"estimatedMrrCents"`
	LifetimeRevenueCents   int64          `json:"lifetimeRevenueCents"`
	ProgramStartDate       *string        `json:"programStartDate,omitempty"`
	ProgramEndDate         *string        `json:"programEndDate,omitempty"`
	ProgramDurationDays    *int           `json:"programDurationDays,omitempty"`
	ProgramProgressPercent *float64       `json:"programProgressPercent,omitempty"`
	StripeCustomerID       *string        `json:"stripeCustomerId,omitempty"`
	SortOrders             map[string]int `json:"sortOrders,omitempty"`
	CreatedAt              time.Time      `json:"createdAt"`
	UpdatedAt              time.Time      `json:"updatedAt"`
}

type ClientListResponse struct {
	Items []ClientResponse `json:"items"`
	Total int              `json:"total"`
}

// MergedClientResponse is a derived view entity spanning every record that
// shares an identity. It is recomputed on each read.
type MergedClientResponse struct {
	ID                     uuid.UUID      `json:"id"`
	MergedClientIDs        []uuid.UUID    `json:"mergedClientIds"`
	MergedNames            string         `json:"mergedNames"`
	Email                  *string        `json:"email,omitempty"`
	Phone                  *string        `json:"phone,omitempty"`
	LifecycleState         LifecycleState `json:"lifecycleState"`
	EstimatedMRRCents      int64          `json:"estimatedMrrCents"`
	LifetimeRevenueCents   int64          `json:"lifetimeRevenueCents"`
	ProgramProgressPercent *float64       `json:"programProgressPercent,omitempty"`
	StripeCustomerID       *string        `json:"stripeCustomerId,omitempty"`
	SortOrder              int            `json:"sortOrder"`
	CreatedAt              time.Time      `json:"createdAt"`
}

// BoardColumnResponse is one kanban column.
type BoardColumnResponse struct {
	Stage   LifecycleState         `json:"stage"`
	Clients []MergedClientResponse `json:"clients"`
}

type BoardResponse struct {
	Columns []BoardColumnResponse `json:"columns"`
}

type MoveClientResponse struct {
	Client ClientResponse `json:"client"`
	Moved  bool           `json:"moved"`
}

type DeleteClientResponse struct {
	DeletedIDs []uuid.UUID `json:"deletedIds"`
}

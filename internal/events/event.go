// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"coachdesk_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Clients Domain Events
// =============================================================================

// ClientCreated is published when a new client record is created.
type ClientCreated struct {
	BaseEvent
	ClientID       uuid.UUID `json:"clientId"`
	DisplayName    string    `json:"displayName"`
	LifecycleState string    `json:"lifecycleState"`
}

func (e ClientCreated) EventName() string { return "clients.client.created" }

// ClientStageChanged is published when a client's lifecycle state changes,
// whether through a board move or the automatic progress sweep.
type ClientStageChanged struct {
	BaseEvent
	ClientID         uuid.UUID `json:"clientId"`
	DisplayName      string    `json:"displayName"`
	FromState        string    `json:"fromState"`
	ToState          string    `json:"toState"`
	TriggeredBySweep bool      `json:"triggeredBySweep"`
}

func (e ClientStageChanged) EventName() string { return "clients.client.stage_changed" }

// ClientDeleted is published after one or more client records are removed.
type ClientDeleted struct {
	BaseEvent
	ClientIDs []uuid.UUID `json:"clientIds"`
	Cascaded  bool        `json:"cascaded"`
}

func (e ClientDeleted) EventName() string { return "clients.client.deleted" }

// BoardReordered is published after a column's sort orders are rewritten.
type BoardReordered struct {
	BaseEvent
	Stage     string    `json:"stage"`
	ClientID  uuid.UUID `json:"clientId"`
	NewIndex  int       `json:"newIndex"`
	CardCount int       `json:"cardCount"`
}

func (e BoardReordered) EventName() string { return "clients.board.reordered" }

// =============================================================================
// Payments Domain Events
// =============================================================================

// PaymentsSynced is published after a Stripe sync run completes.
type PaymentsSynced struct {
	BaseEvent
	ChargesSeen      int       `json:"chargesSeen"`
	PaymentsUpserted int       `json:"paymentsUpserted"`
	ClientsLinked    int       `json:"clientsLinked"`
	StartedAt        time.Time `json:"startedAt"`
}

func (e PaymentsSynced) EventName() string { return "payments.sync.completed" }

// =============================================================================
// Check-in Domain Events
// =============================================================================

// CheckInCompleted is published when a check-in is marked complete.
type CheckInCompleted struct {
	BaseEvent
	CheckInID uuid.UUID `json:"checkInId"`
	ClientID  uuid.UUID `json:"clientId"`
}

func (e CheckInCompleted) EventName() string { return "checkins.checkin.completed" }

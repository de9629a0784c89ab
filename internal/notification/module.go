// Package notification forwards automatic pipeline transitions to the coach
// by email. It subscribes to domain events and has no HTTP surface.
package notification

import (
	"context"

	"coachdesk_backend/internal/clients/domain"
	"coachdesk_backend/internal/email"
	"coachdesk_backend/internal/events"
	"coachdesk_backend/platform/logger"
)

// Module listens for stage changes produced by the progress sweep and emails
// the coach when a client enters offboarding or finishes their program.
type Module struct {
	sender        email.Sender
	notifyAddress string
	log           *logger.Logger
}

// NewModule creates the notification module. With an empty notify address or
// a nil sender the module stays registered but sends nothing.
func NewModule(sender email.Sender, notifyAddress string, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{sender: sender, notifyAddress: notifyAddress, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// RegisterHandlers subscribes to the domain events this module reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ClientStageChanged{}.EventName(), m)
}

// Handle routes events to the appropriate notification.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ClientStageChanged:
		return m.handleStageChanged(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleStageChanged(ctx context.Context, e events.ClientStageChanged) error {
	// Manual board moves are the coach's own doing; only automatic
	// transitions warrant an email.
	if !e.TriggeredBySweep || m.notifyAddress == "" {
		return nil
	}
	to := domain.Stage(e.ToState)
	if to != domain.StageOffboarding && to != domain.StageDead {
		return nil
	}

	name := e.DisplayName
	if name == "" {
		name = domain.UnnamedClientPlaceholder
	}

	if err := m.sender.SendStageNotice(ctx, m.notifyAddress, name, e.FromState, e.ToState); err != nil {
		m.log.Error("stage notice email failed", "clientId", e.ClientID, "error", err)
		return err
	}
	m.log.Info("stage notice email sent", "clientId", e.ClientID, "toState", e.ToState)
	return nil
}

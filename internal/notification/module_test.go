package notification

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"coachdesk_backend/internal/events"
	"coachdesk_backend/platform/logger"
)

type recordingSender struct {
	sent []string
}

func (r *recordingSender) SendStageNotice(_ context.Context, _, clientName, _, toState string) error {
	r.sent = append(r.sent, clientName+"->"+toState)
	return nil
}

func stageChanged(toState string, bySweep bool) events.ClientStageChanged {
	return events.ClientStageChanged{
		BaseEvent:        events.NewBaseEvent(),
		ClientID:         uuid.New(),
		DisplayName:      "Ada Lovelace",
		FromState:        "active",
		ToState:          toState,
		TriggeredBySweep: bySweep,
	}
}

func TestNotifiesOnSweepTransitions(t *testing.T) {
	sender := &recordingSender{}
	mod := NewModule(sender, "coach@example.com", logger.New("test"))

	if err := mod.Handle(context.Background(), stageChanged("offboarding", true)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := mod.Handle(context.Background(), stageChanged("dead", true)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 notices, got %d", len(sender.sent))
	}
}

func TestIgnoresManualMoves(t *testing.T) {
	sender := &recordingSender{}
	mod := NewModule(sender, "coach@example.com", logger.New("test"))

	if err := mod.Handle(context.Background(), stageChanged("offboarding", false)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("manual moves must not email the coach")
	}
}

func TestIgnoresNonTerminalTransitions(t *testing.T) {
	sender := &recordingSender{}
	mod := NewModule(sender, "coach@example.com", logger.New("test"))

	if err := mod.Handle(context.Background(), stageChanged("warm_lead", true)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("only offboarding and dead transitions notify")
	}
}

func TestSilentWithoutNotifyAddress(t *testing.T) {
	sender := &recordingSender{}
	mod := NewModule(sender, "", logger.New("test"))

	if err := mod.Handle(context.Background(), stageChanged("dead", true)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("no notify address configured means no email")
	}
}

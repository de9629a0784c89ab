package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"coachdesk_backend/internal/checkins/repository"
	"coachdesk_backend/internal/checkins/transport"
	"coachdesk_backend/platform/apperr"
	"coachdesk_backend/platform/logger"
	platformevents "coachdesk_backend/platform/events"
)

type fakeCheckInRepo struct {
	checkIns map[uuid.UUID]repository.CheckIn
}

func newFakeCheckInRepo() *fakeCheckInRepo {
	return &fakeCheckInRepo{checkIns: make(map[uuid.UUID]repository.CheckIn)}
}

func (f *fakeCheckInRepo) GetByID(_ context.Context, id uuid.UUID) (repository.CheckIn, error) {
	ci, ok := f.checkIns[id]
	if !ok {
		return repository.CheckIn{}, apperr.NotFound("check-in not found")
	}
	return ci, nil
}

func (f *fakeCheckInRepo) List(_ context.Context, params repository.ListParams) ([]repository.CheckIn, error) {
	var out []repository.CheckIn
	for _, ci := range f.checkIns {
		if params.From != nil && ci.ScheduledAt.Before(*params.From) {
			continue
		}
		if params.To != nil && !ci.ScheduledAt.Before(*params.To) {
			continue
		}
		if params.ClientID != nil && ci.ClientID != *params.ClientID {
			continue
		}
		out = append(out, ci)
	}
	return out, nil
}

func (f *fakeCheckInRepo) Create(_ context.Context, params repository.CreateParams) (repository.CheckIn, error) {
	ci := repository.CheckIn{
		ID:              uuid.New(),
		ClientID:        params.ClientID,
		ScheduledAt:     params.ScheduledAt,
		DurationMinutes: params.DurationMinutes,
		Status:          repository.StatusScheduled,
		Notes:           params.Notes,
	}
	f.checkIns[ci.ID] = ci
	return ci, nil
}

func (f *fakeCheckInRepo) Save(_ context.Context, checkIn repository.CheckIn) (repository.CheckIn, error) {
	if _, ok := f.checkIns[checkIn.ID]; !ok {
		return repository.CheckIn{}, apperr.NotFound("check-in not found")
	}
	f.checkIns[checkIn.ID] = checkIn
	return checkIn, nil
}

func (f *fakeCheckInRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.checkIns[id]; !ok {
		return apperr.NotFound("check-in not found")
	}
	delete(f.checkIns, id)
	return nil
}

type allowAllClients struct{}

func (allowAllClients) ClientExists(context.Context, uuid.UUID) error { return nil }

type noClients struct{}

func (noClients) ClientExists(context.Context, uuid.UUID) error {
	return apperr.NotFound("client not found")
}

type nullBus struct{}

func (nullBus) Publish(context.Context, platformevents.Event) {}
func (nullBus) PublishSync(context.Context, platformevents.Event) error {
	return nil
}
func (nullBus) Subscribe(string, platformevents.Handler) {}

func newService(repo repository.Repository, clients ClientChecker) *Service {
	return New(repo, clients, nullBus{}, logger.New("test"))
}

func TestCreateRejectsUnknownClient(t *testing.T) {
	svc := newService(newFakeCheckInRepo(), noClients{})

	_, err := svc.Create(context.Background(), transport.CreateCheckInRequest{
		ClientID:    uuid.New(),
		ScheduledAt: time.Now(),
	})
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for unknown client, got %v", err)
	}
}

func TestCreateDefaultsDuration(t *testing.T) {
	svc := newService(newFakeCheckInRepo(), allowAllClients{})

	resp, err := svc.Create(context.Background(), transport.CreateCheckInRequest{
		ClientID:    uuid.New(),
		ScheduledAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.DurationMinutes != 30 {
		t.Errorf("default duration = %d, want 30", resp.DurationMinutes)
	}
	if resp.Status != repository.StatusScheduled {
		t.Errorf("status = %s, want scheduled", resp.Status)
	}
}

func TestCompleteThenCancelConflicts(t *testing.T) {
	repo := newFakeCheckInRepo()
	svc := newService(repo, allowAllClients{})

	created, err := svc.Create(context.Background(), transport.CreateCheckInRequest{
		ClientID:    uuid.New(),
		ScheduledAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	completed, err := svc.Complete(context.Background(), created.ID, transport.CompleteCheckInRequest{})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != repository.StatusCompleted {
		t.Errorf("status = %s, want completed", completed.Status)
	}

	if _, err := svc.Cancel(context.Background(), created.ID); apperr.GetKind(err) != apperr.KindConflict {
		t.Errorf("cancelling a completed check-in must conflict, got %v", err)
	}
	if _, err := svc.Update(context.Background(), created.ID, transport.UpdateCheckInRequest{}); apperr.GetKind(err) != apperr.KindConflict {
		t.Errorf("updating a completed check-in must conflict, got %v", err)
	}
}

func TestCancelThenCompleteConflicts(t *testing.T) {
	repo := newFakeCheckInRepo()
	svc := newService(repo, allowAllClients{})

	created, _ := svc.Create(context.Background(), transport.CreateCheckInRequest{
		ClientID:    uuid.New(),
		ScheduledAt: time.Now(),
	})

	if _, err := svc.Cancel(context.Background(), created.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Complete(context.Background(), created.ID, transport.CompleteCheckInRequest{}); apperr.GetKind(err) != apperr.KindConflict {
		t.Errorf("completing a cancelled check-in must conflict, got %v", err)
	}
}

func TestListFiltersByRange(t *testing.T) {
	repo := newFakeCheckInRepo()
	svc := newService(repo, allowAllClients{})

	base := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)
	for _, offset := range []int{0, 5, 40} {
		if _, err := svc.Create(context.Background(), transport.CreateCheckInRequest{
			ClientID:    uuid.New(),
			ScheduledAt: base.AddDate(0, 0, offset),
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	from := base.AddDate(0, 0, -1)
	to := base.AddDate(0, 0, 10)
	result, err := svc.List(context.Background(), transport.ListCheckInsRequest{From: &from, To: &to})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Total != 2 {
		t.Errorf("range should contain 2 check-ins, got %d", result.Total)
	}
}

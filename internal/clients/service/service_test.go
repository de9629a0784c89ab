package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"coachdesk_backend/internal/clients/domain"
	"coachdesk_backend/internal/clients/repository"
	"coachdesk_backend/internal/clients/transport"
	"coachdesk_backend/internal/events"
	"coachdesk_backend/platform/apperr"
	"coachdesk_backend/platform/logger"
	platformevents "coachdesk_backend/platform/events"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	mu      sync.Mutex
	clients map[uuid.UUID]repository.Client
	seq     int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{clients: make(map[uuid.UUID]repository.Client)}
}

func (f *fakeRepo) add(mutate func(*repository.Client)) repository.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	c := repository.Client{
		ID:             uuid.New(),
		LifecycleState: string(domain.StageColdLead),
		SortOrders:     map[string]int{},
		CreatedAt:      testNow.Add(time.Duration(f.seq) * time.Minute),
		UpdatedAt:      testNow,
	}
	if mutate != nil {
		mutate(&c)
	}
	f.clients[c.ID] = c
	return c
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok {
		return repository.Client{}, apperr.NotFound("client not found")
	}
	return c, nil
}

func (f *fakeRepo) GetByStripeCustomerID(_ context.Context, stripeCustomerID string) (repository.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.clients {
		if c.StripeCustomerID != nil && *c.StripeCustomerID == stripeCustomerID {
			return c, nil
		}
	}
	return repository.Client{}, apperr.NotFound("client not found")
}

func (f *fakeRepo) GetByNormalizedEmail(_ context.Context, normalizedEmail string) (repository.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.clients {
		if c.Email != nil && domain.NormalizeEmail(*c.Email) == normalizedEmail {
			return c, nil
		}
	}
	return repository.Client{}, apperr.NotFound("client not found")
}

func (f *fakeRepo) List(_ context.Context, params repository.ListParams) ([]repository.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Client
	for _, c := range f.clients {
		if params.LifecycleState != nil && c.LifecycleState != *params.LifecycleState {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Client, error) {
	return f.add(func(c *repository.Client) {
		c.FirstName = params.FirstName
		c.LastName = params.LastName
		c.Email = params.Email
		c.Phone = params.Phone
		c.LifecycleState = params.LifecycleState
		c.ProgramStartDate = params.ProgramStartDate
		c.ProgramEndDate = params.ProgramEndDate
		c.ProgramDurationDays = params.ProgramDurationDays
		c.StripeCustomerID = params.StripeCustomerID
	}), nil
}

func (f *fakeRepo) Save(_ context.Context, client repository.Client) (repository.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[client.ID]; !ok {
		return repository.Client{}, apperr.NotFound("client not found")
	}
	client.UpdatedAt = testNow
	f.clients[client.ID] = client
	return client, nil
}

func (f *fakeRepo) Delete(_ context.Context, ids []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	deleted := 0
	for _, id := range ids {
		if _, ok := f.clients[id]; ok {
			delete(f.clients, id)
			deleted++
		}
	}
	if deleted == 0 {
		return apperr.NotFound("client not found")
	}
	return nil
}

func (f *fakeRepo) UpdateStage(_ context.Context, id uuid.UUID, stage string, clearProgram bool) (repository.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok {
		return repository.Client{}, apperr.NotFound("client not found")
	}
	c.LifecycleState = stage
	if clearProgram {
		c.ProgramStartDate = nil
		c.ProgramEndDate = nil
		c.ProgramDurationDays = nil
	}
	f.clients[id] = c
	return c, nil
}

func (f *fakeRepo) UpdateSortOrders(_ context.Context, stage string, updates []repository.SortOrderUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range updates {
		c, ok := f.clients[u.ClientID]
		if !ok {
			return apperr.NotFound("client not found")
		}
		if c.SortOrders == nil {
			c.SortOrders = map[string]int{}
		}
		c.SortOrders[stage] = u.Position
		f.clients[u.ClientID] = c
	}
	return nil
}

func (f *fakeRepo) UpdateRevenue(_ context.Context, updates []repository.RevenueUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range updates {
		c, ok := f.clients[u.ClientID]
		if !ok {
			continue
		}
		if u.LifetimeRevenueCents > c.LifetimeRevenueCents {
			c.LifetimeRevenueCents = u.LifetimeRevenueCents
		}
		if u.EstimatedMRRCents > c.EstimatedMRRCents {
			c.EstimatedMRRCents = u.EstimatedMRRCents
		}
		f.clients[u.ClientID] = c
	}
	return nil
}

// recordingBus captures published events synchronously.
type recordingBus struct {
	mu     sync.Mutex
	events []platformevents.Event
}

func (b *recordingBus) Publish(_ context.Context, event platformevents.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event platformevents.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, platformevents.Handler) {}

func (b *recordingBus) byName(name string) []platformevents.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []platformevents.Event
	for _, e := range b.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(repo *fakeRepo, bus *recordingBus) *Service {
	return New(repo, bus, logger.New("test")).WithClock(func() time.Time { return testNow })
}

func strptr(s string) *string { return &s }
func intptr(i int) *int       { return &i }

func TestCreateRequiresSomeIdentity(t *testing.T) {
	svc := newTestService(newFakeRepo(), &recordingBus{})

	_, err := svc.Create(context.Background(), transport.CreateClientRequest{})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, err := svc.Create(context.Background(), transport.CreateClientRequest{Email: strptr("a@b.com")}); err != nil {
		t.Fatalf("email alone should satisfy identity requirement: %v", err)
	}
}

func TestCreateDefaultsToColdLead(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newTestService(repo, bus)

	resp, err := svc.Create(context.Background(), transport.CreateClientRequest{FirstName: "Ada"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.LifecycleState != transport.LifecycleStateColdLead {
		t.Errorf("lifecycle state = %s, want cold_lead", resp.LifecycleState)
	}
	if got := bus.byName("clients.client.created"); len(got) != 1 {
		t.Errorf("expected 1 created event, got %d", len(got))
	}
}

func TestUpdateNullClearsEmailOmittedLeavesIt(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingBus{})
	c := repo.add(func(c *repository.Client) {
		c.FirstName = "Ada"
		c.Email = strptr("ada@example.com")
		c.Phone = strptr("+14155550100")
	})

	// Omitted email stays put.
	resp, err := svc.Update(context.Background(), c.ID, transport.UpdateClientRequest{FirstName: strptr("Ada B")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if resp.Email == nil || *resp.Email != "ada@example.com" {
		t.Errorf("omitted email must remain unchanged, got %v", resp.Email)
	}

	// Explicit null clears.
	resp, err = svc.Update(context.Background(), c.ID, transport.UpdateClientRequest{
		Email: transport.OptionalString{Set: true, Value: nil},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if resp.Email != nil {
		t.Errorf("explicit null must clear email, got %v", *resp.Email)
	}
	if resp.Phone == nil {
		t.Errorf("untouched phone must survive the update")
	}
}

func TestMoveSameStageNoIndexIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newTestService(repo, bus)
	c := repo.add(func(c *repository.Client) { c.LifecycleState = string(domain.StageActive) })

	resp, err := svc.Move(context.Background(), c.ID, transport.MoveClientRequest{TargetState: transport.LifecycleStateActive})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if resp.Moved {
		t.Errorf("same-stage move without index must be a no-op")
	}
	if got := bus.byName("clients.client.stage_changed"); len(got) != 0 {
		t.Errorf("no-op move must not publish stage change, got %d events", len(got))
	}
}

func TestMoveOutOfOffboardingClearsProgram(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newTestService(repo, bus)

	start := testNow.AddDate(0, 0, -80)
	c := repo.add(func(c *repository.Client) {
		c.LifecycleState = string(domain.StageOffboarding)
		c.ProgramStartDate = &start
		c.ProgramDurationDays = intptr(100)
	})

	resp, err := svc.Move(context.Background(), c.ID, transport.MoveClientRequest{TargetState: transport.LifecycleStateActive})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if !resp.Moved {
		t.Fatalf("stage change must report moved")
	}
	if resp.Client.ProgramStartDate != nil || resp.Client.ProgramDurationDays != nil {
		t.Errorf("leaving offboarding must clear program timeline fields")
	}
	if resp.Client.ProgramProgressPercent != nil {
		t.Errorf("derived progress must vanish with the timeline")
	}

	changed := bus.byName("clients.client.stage_changed")
	if len(changed) != 1 {
		t.Fatalf("expected 1 stage change event, got %d", len(changed))
	}
	evt := changed[0].(events.ClientStageChanged)
	if evt.FromState != "offboarding" || evt.ToState != "active" {
		t.Errorf("event states = %s -> %s", evt.FromState, evt.ToState)
	}
}

func TestMoveIntoOffboardingKeepsProgram(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingBus{})

	start := testNow.AddDate(0, 0, -10)
	c := repo.add(func(c *repository.Client) {
		c.LifecycleState = string(domain.StageActive)
		c.ProgramStartDate = &start
		c.ProgramDurationDays = intptr(100)
	})

	resp, err := svc.Move(context.Background(), c.ID, transport.MoveClientRequest{TargetState: transport.LifecycleStateOffboarding})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if resp.Client.ProgramStartDate == nil {
		t.Errorf("moving into offboarding must keep the program timeline")
	}
}

func TestMoveUnknownClientIsNotFound(t *testing.T) {
	svc := newTestService(newFakeRepo(), &recordingBus{})

	_, err := svc.Move(context.Background(), uuid.New(), transport.MoveClientRequest{TargetState: transport.LifecycleStateActive})
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReorderColumnWritesSequentialOrders(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newTestService(repo, bus)

	var cards []repository.Client
	for i := 0; i < 4; i++ {
		i := i
		cards = append(cards, repo.add(func(c *repository.Client) {
			c.LifecycleState = string(domain.StageActive)
			c.FirstName = "Client"
			c.SortOrders = map[string]int{string(domain.StageActive): i}
		}))
	}

	// Drag the third card to the front.
	err := svc.ReorderColumn(context.Background(), domain.StageActive, transport.ReorderColumnRequest{
		ClientID:    cards[2].ID,
		TargetIndex: 0,
	})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}

	wantOrder := []uuid.UUID{cards[2].ID, cards[0].ID, cards[1].ID, cards[3].ID}
	for position, id := range wantOrder {
		stored, _ := repo.GetByID(context.Background(), id)
		if got := stored.SortOrders[string(domain.StageActive)]; got != position {
			t.Errorf("client %d sort order = %d, want %d", position, got, position)
		}
	}

	if got := bus.byName("clients.board.reordered"); len(got) != 1 {
		t.Errorf("expected 1 reorder event, got %d", len(got))
	}
}

func TestReorderColumnCoversMergedMembers(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingBus{})

	// Two records sharing an email merge into one card.
	a := repo.add(func(c *repository.Client) {
		c.LifecycleState = string(domain.StageActive)
		c.Email = strptr("dup@example.com")
		c.SortOrders = map[string]int{string(domain.StageActive): 0}
	})
	b := repo.add(func(c *repository.Client) {
		c.LifecycleState = string(domain.StageActive)
		c.Email = strptr("DUP@example.com")
	})
	other := repo.add(func(c *repository.Client) {
		c.LifecycleState = string(domain.StageActive)
		c.Email = strptr("solo@example.com")
		c.SortOrders = map[string]int{string(domain.StageActive): 1}
	})

	err := svc.ReorderColumn(context.Background(), domain.StageActive, transport.ReorderColumnRequest{
		ClientID:    other.ID,
		TargetIndex: 0,
	})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}

	storedA, _ := repo.GetByID(context.Background(), a.ID)
	storedB, _ := repo.GetByID(context.Background(), b.ID)
	if storedA.SortOrders[string(domain.StageActive)] != storedB.SortOrders[string(domain.StageActive)] {
		t.Errorf("all members of a merged card must share its position")
	}
	storedOther, _ := repo.GetByID(context.Background(), other.ID)
	if storedOther.SortOrders[string(domain.StageActive)] != 0 {
		t.Errorf("dragged card must land at index 0")
	}
}

func TestReorderColumnClampsTargetIndex(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingBus{})
	c := repo.add(func(c *repository.Client) {
		c.LifecycleState = string(domain.StageActive)
		c.FirstName = "Only"
	})

	err := svc.ReorderColumn(context.Background(), domain.StageActive, transport.ReorderColumnRequest{
		ClientID:    c.ID,
		TargetIndex: 99,
	})
	if err != nil {
		t.Fatalf("index past end must clamp to the last slot: %v", err)
	}
}

func TestReorderColumnUnknownClient(t *testing.T) {
	svc := newTestService(newFakeRepo(), &recordingBus{})

	err := svc.ReorderColumn(context.Background(), domain.StageActive, transport.ReorderColumnRequest{
		ClientID: uuid.New(),
	})
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteCascadeRemovesMergedGroup(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newTestService(repo, bus)

	a := repo.add(func(c *repository.Client) { c.Email = strptr("x@y.com") })
	b := repo.add(func(c *repository.Client) { c.Email = strptr(" X@Y.com") })
	bystander := repo.add(func(c *repository.Client) { c.Email = strptr("z@y.com") })

	resp, err := svc.Delete(context.Background(), a.ID, true)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(resp.DeletedIDs) != 2 {
		t.Fatalf("cascade must delete both merged records, got %d", len(resp.DeletedIDs))
	}
	if _, err := repo.GetByID(context.Background(), b.ID); apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("merged sibling must be deleted")
	}
	if _, err := repo.GetByID(context.Background(), bystander.ID); err != nil {
		t.Errorf("unrelated record must survive: %v", err)
	}
}

func TestDeleteWithoutCascadeRemovesOnlyTarget(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingBus{})

	a := repo.add(func(c *repository.Client) { c.Email = strptr("x@y.com") })
	b := repo.add(func(c *repository.Client) { c.Email = strptr("x@y.com") })

	resp, err := svc.Delete(context.Background(), a.ID, false)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(resp.DeletedIDs) != 1 {
		t.Fatalf("plain delete must remove one record, got %d", len(resp.DeletedIDs))
	}
	if _, err := repo.GetByID(context.Background(), b.ID); err != nil {
		t.Errorf("sibling must survive a non-cascade delete: %v", err)
	}
}

func TestSweepProgressAppliesThresholds(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newTestService(repo, bus)

	start80 := testNow.AddDate(0, 0, -80)
	start120 := testNow.AddDate(0, 0, -120)
	start10 := testNow.AddDate(0, 0, -10)

	toOffboard := repo.add(func(c *repository.Client) {
		c.LifecycleState = string(domain.StageActive)
		c.ProgramStartDate = &start80
		c.ProgramDurationDays = intptr(100)
	})
	toDead := repo.add(func(c *repository.Client) {
		c.LifecycleState = string(domain.StageOffboarding)
		c.ProgramStartDate = &start120
		c.ProgramDurationDays = intptr(100)
	})
	untouched := repo.add(func(c *repository.Client) {
		c.LifecycleState = string(domain.StageActive)
		c.ProgramStartDate = &start10
		c.ProgramDurationDays = intptr(100)
	})
	alreadyDead := repo.add(func(c *repository.Client) {
		c.LifecycleState = string(domain.StageDead)
		c.ProgramStartDate = &start10
		c.ProgramDurationDays = intptr(100)
	})

	n, err := svc.SweepProgress(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 transitions, got %d", n)
	}

	assertState := func(id uuid.UUID, want domain.Stage) {
		t.Helper()
		c, _ := repo.GetByID(context.Background(), id)
		if c.LifecycleState != string(want) {
			t.Errorf("client state = %s, want %s", c.LifecycleState, want)
		}
	}
	assertState(toOffboard.ID, domain.StageOffboarding)
	assertState(toDead.ID, domain.StageDead)
	assertState(untouched.ID, domain.StageActive)
	assertState(alreadyDead.ID, domain.StageDead)

	for _, e := range bus.byName("clients.client.stage_changed") {
		if !e.(events.ClientStageChanged).TriggeredBySweep {
			t.Errorf("sweep transitions must be flagged as sweep-triggered")
		}
	}
}

func TestSweepProgressIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingBus{})

	start := testNow.AddDate(0, 0, -80)
	repo.add(func(c *repository.Client) {
		c.LifecycleState = string(domain.StageActive)
		c.ProgramStartDate = &start
		c.ProgramDurationDays = intptr(100)
	})

	if _, err := svc.SweepProgress(context.Background()); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	n, err := svc.SweepProgress(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if n != 0 {
		t.Errorf("second sweep must find nothing to do, got %d transitions", n)
	}
}

func TestBoardColumnsCoverAllStages(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &recordingBus{})
	repo.add(func(c *repository.Client) {
		c.LifecycleState = string(domain.StageActive)
		c.FirstName = "Solo"
	})

	board, err := svc.Board(context.Background())
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if len(board.Columns) != len(domain.AllStages()) {
		t.Fatalf("board must have one column per stage, got %d", len(board.Columns))
	}
	var activeCards int
	for _, col := range board.Columns {
		if col.Stage == transport.LifecycleStateActive {
			activeCards = len(col.Clients)
		}
	}
	if activeCards != 1 {
		t.Errorf("active column card count = %d, want 1", activeCards)
	}
}

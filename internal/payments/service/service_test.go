package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"coachdesk_backend/internal/payments/repository"
	"coachdesk_backend/internal/payments/stripe"
	"coachdesk_backend/platform/apperr"
	"coachdesk_backend/platform/logger"
	platformevents "coachdesk_backend/platform/events"
)

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[string]repository.Payment
	manual   []repository.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[string]repository.Payment)}
}

func (f *fakePaymentRepo) Upsert(_ context.Context, params repository.UpsertParams) (repository.Payment, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := repository.Payment{
		ID:               uuid.New(),
		StripePaymentID:  params.StripePaymentID,
		StripeCustomerID: params.StripeCustomerID,
		ClientID:         params.ClientID,
		AmountCents:      params.AmountCents,
		Currency:         params.Currency,
		Status:           params.Status,
		SubscriptionID:   params.SubscriptionID,
		PaidAt:           params.PaidAt,
	}
	if params.StripePaymentID == nil {
		f.manual = append(f.manual, p)
		return p, true, nil
	}
	_, exists := f.payments[*params.StripePaymentID]
	if exists {
		existing := f.payments[*params.StripePaymentID]
		existing.Status = params.Status
		if existing.ClientID == nil {
			existing.ClientID = params.ClientID
		}
		f.payments[*params.StripePaymentID] = existing
		return existing, false, nil
	}
	f.payments[*params.StripePaymentID] = p
	return p, true, nil
}

func (f *fakePaymentRepo) ListForIdentity(_ context.Context, clientIDs []uuid.UUID, stripeCustomerIDs []string) ([]repository.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	inClients := make(map[uuid.UUID]bool)
	for _, id := range clientIDs {
		inClients[id] = true
	}
	inCustomers := make(map[string]bool)
	for _, id := range stripeCustomerIDs {
		inCustomers[id] = true
	}

	var out []repository.Payment
	for _, p := range f.payments {
		if (p.ClientID != nil && inClients[*p.ClientID]) ||
			(p.StripeCustomerID != nil && inCustomers[*p.StripeCustomerID]) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) ListAll(context.Context) ([]repository.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Payment
	for _, p := range f.payments {
		out = append(out, p)
	}
	return append(out, f.manual...), nil
}

func (f *fakePaymentRepo) SucceededTotalsByClient(context.Context) ([]repository.ClientRevenue, error) {
	return nil, nil
}

func (f *fakePaymentRepo) MonthlyRevenue(context.Context, int) ([]repository.MonthRevenue, error) {
	return nil, nil
}

type fakeStripe struct {
	charges []stripe.Charge
	subs    []stripe.Subscription
}

func (f *fakeStripe) ListCharges(context.Context) ([]stripe.Charge, error) {
	return f.charges, nil
}

func (f *fakeStripe) ListActiveSubscriptions(context.Context) ([]stripe.Subscription, error) {
	return f.subs, nil
}

type fakeDirectory struct {
	mu         sync.Mutex
	byCustomer map[string]uuid.UUID
	byEmail    map[string]uuid.UUID
	applied    []RevenueFigures
}

func (f *fakeDirectory) FindByStripeCustomerID(_ context.Context, stripeCustomerID string) (LinkedClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.byCustomer[stripeCustomerID]; ok {
		return LinkedClient{ID: id}, nil
	}
	return LinkedClient{}, apperr.NotFound("client not found")
}

func (f *fakeDirectory) FindByEmail(_ context.Context, email string) (LinkedClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.byEmail[email]; ok {
		return LinkedClient{ID: id}, nil
	}
	return LinkedClient{}, apperr.NotFound("client not found")
}

func (f *fakeDirectory) StripeCustomerIDs(_ context.Context, clientIDs []uuid.UUID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for customer, clientID := range f.byCustomer {
		for _, id := range clientIDs {
			if id == clientID {
				out = append(out, customer)
			}
		}
	}
	return out, nil
}

func (f *fakeDirectory) ApplyRevenue(_ context.Context, figures []RevenueFigures) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, figures...)
	return nil
}

type nullBus struct{}

func (nullBus) Publish(context.Context, platformevents.Event) {}
func (nullBus) PublishSync(context.Context, platformevents.Event) error {
	return nil
}
func (nullBus) Subscribe(string, platformevents.Handler) {}

func charge(id, customer string, amount int64, paid bool) stripe.Charge {
	c := stripe.Charge{
		ID:       id,
		Amount:   amount,
		Currency: "usd",
		Customer: customer,
		Paid:     paid,
		Created:  time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC).Unix(),
	}
	if paid {
		c.Status = "succeeded"
	} else {
		c.Status = "failed"
	}
	return c
}

func TestSyncLinksByCustomerID(t *testing.T) {
	clientID := uuid.New()
	repo := newFakePaymentRepo()
	dir := &fakeDirectory{byCustomer: map[string]uuid.UUID{"cus_a": clientID}}
	api := &fakeStripe{charges: []stripe.Charge{
		charge("ch_1", "cus_a", 5000, true),
		charge("ch_2", "cus_a", 2500, true),
	}}
	svc := New(repo, api, dir, nullBus{}, logger.New("test"))

	stats, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if stats.ChargesSeen != 2 || stats.PaymentsUpserted != 2 || stats.ClientsLinked != 2 {
		t.Errorf("stats = %+v", stats)
	}

	if len(dir.applied) != 1 {
		t.Fatalf("expected revenue figures for 1 client, got %d", len(dir.applied))
	}
	if dir.applied[0].LifetimeRevenueCents != 7500 {
		t.Errorf("lifetime revenue = %d, want 7500", dir.applied[0].LifetimeRevenueCents)
	}
}

func TestSyncFallsBackToEmailLink(t *testing.T) {
	clientID := uuid.New()
	repo := newFakePaymentRepo()
	dir := &fakeDirectory{
		byCustomer: map[string]uuid.UUID{},
		byEmail:    map[string]uuid.UUID{"lost@example.com": clientID},
	}
	ch := charge("ch_1", "", 4000, true)
	ch.BillingDetails.Email = "lost@example.com"
	api := &fakeStripe{charges: []stripe.Charge{ch}}
	svc := New(repo, api, dir, nullBus{}, logger.New("test"))

	stats, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if stats.ClientsLinked != 1 {
		t.Errorf("email fallback must link the charge, stats = %+v", stats)
	}
}

func TestSyncIsIdempotentAcrossRuns(t *testing.T) {
	clientID := uuid.New()
	repo := newFakePaymentRepo()
	dir := &fakeDirectory{byCustomer: map[string]uuid.UUID{"cus_a": clientID}}
	api := &fakeStripe{charges: []stripe.Charge{charge("ch_1", "cus_a", 5000, true)}}
	svc := New(repo, api, dir, nullBus{}, logger.New("test"))

	if _, err := svc.Sync(context.Background()); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	stats, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if stats.PaymentsUpserted != 0 {
		t.Errorf("second run must not insert duplicates, upserted %d", stats.PaymentsUpserted)
	}

	all, _ := repo.ListAll(context.Background())
	if len(all) != 1 {
		t.Errorf("payment count = %d, want 1 (dedup by processor id)", len(all))
	}
}

func TestSyncMapsRefundedAndFailedStatuses(t *testing.T) {
	repo := newFakePaymentRepo()
	dir := &fakeDirectory{}
	refunded := charge("ch_r", "", 1000, true)
	refunded.Refunded = true
	failed := charge("ch_f", "", 1000, false)
	api := &fakeStripe{charges: []stripe.Charge{refunded, failed}}
	svc := New(repo, api, dir, nullBus{}, logger.New("test"))

	if _, err := svc.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	all, _ := repo.ListAll(context.Background())
	statuses := make(map[string]string)
	for _, p := range all {
		statuses[*p.StripePaymentID] = p.Status
	}
	if statuses["ch_r"] != repository.StatusRefunded {
		t.Errorf("refunded charge status = %s", statuses["ch_r"])
	}
	if statuses["ch_f"] != repository.StatusFailed {
		t.Errorf("failed charge status = %s", statuses["ch_f"])
	}
}

func TestSyncComputesMRRFromSubscriptions(t *testing.T) {
	clientID := uuid.New()
	repo := newFakePaymentRepo()
	dir := &fakeDirectory{byCustomer: map[string]uuid.UUID{"cus_a": clientID}}

	var sub stripe.Subscription
	sub.ID = "sub_1"
	sub.Customer = "cus_a"
	sub.Status = "active"
	item := stripe.SubscriptionItem{Quantity: 1}
	item.Price.UnitAmount = 9900
	item.Price.Recurring.Interval = "month"
	item.Price.Recurring.IntervalCount = 1
	sub.Items.Data = []stripe.SubscriptionItem{item}

	api := &fakeStripe{subs: []stripe.Subscription{sub}}
	svc := New(repo, api, dir, nullBus{}, logger.New("test"))

	if _, err := svc.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(dir.applied) != 1 || dir.applied[0].EstimatedMRRCents != 9900 {
		t.Fatalf("MRR figures = %+v, want 9900 for the linked client", dir.applied)
	}
}

func TestSyncWithoutStripeConfigured(t *testing.T) {
	svc := New(newFakePaymentRepo(), nil, &fakeDirectory{}, nullBus{}, logger.New("test"))

	_, err := svc.Sync(context.Background())
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetClientPaymentsSumsSucceededOnly(t *testing.T) {
	clientID := uuid.New()
	repo := newFakePaymentRepo()
	dir := &fakeDirectory{byCustomer: map[string]uuid.UUID{"cus_a": clientID}}
	refunded := charge("ch_r", "cus_a", 3000, true)
	refunded.Refunded = true
	api := &fakeStripe{charges: []stripe.Charge{
		charge("ch_1", "cus_a", 5000, true),
		refunded,
	}}
	svc := New(repo, api, dir, nullBus{}, logger.New("test"))
	if _, err := svc.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	history, err := svc.GetClientPayments(context.Background(), clientID, nil)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history.Payments) != 2 {
		t.Fatalf("payment count = %d, want 2", len(history.Payments))
	}
	if history.TotalAmountPaidCents != 5000 {
		t.Errorf("total paid = %d, want 5000 (refunds excluded)", history.TotalAmountPaidCents)
	}
}

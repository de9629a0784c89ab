package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	clientsrepo "coachdesk_backend/internal/clients/repository"
	paymentsrepo "coachdesk_backend/internal/payments/repository"
	"coachdesk_backend/internal/clients/domain"
	"coachdesk_backend/platform/logger"
)

var testNow = time.Date(2026, time.May, 15, 12, 0, 0, 0, time.UTC)

type staticClients struct {
	clients []clientsrepo.Client
}

func (s staticClients) List(context.Context, clientsrepo.ListParams) ([]clientsrepo.Client, error) {
	return s.clients, nil
}

type staticRevenue struct {
	buckets []paymentsrepo.MonthRevenue
}

func (s staticRevenue) MonthlyRevenue(context.Context, int) ([]paymentsrepo.MonthRevenue, error) {
	return s.buckets, nil
}

func client(stage domain.Stage, offset time.Duration, mutate func(*clientsrepo.Client)) clientsrepo.Client {
	c := clientsrepo.Client{
		ID:             uuid.New(),
		FirstName:      "Test",
		LifecycleState: string(stage),
		CreatedAt:      testNow.Add(offset),
	}
	if mutate != nil {
		mutate(&c)
	}
	return c
}

func newService(clients []clientsrepo.Client, buckets []paymentsrepo.MonthRevenue) *Service {
	return New(staticClients{clients}, staticRevenue{buckets}, logger.New("test")).
		WithClock(func() time.Time { return testNow })
}

func TestFunnelCountsAndConversions(t *testing.T) {
	clients := []clientsrepo.Client{
		client(domain.StageColdLead, 0, nil),
		client(domain.StageColdLead, time.Minute, nil),
		client(domain.StageWarmLead, 2*time.Minute, nil),
		client(domain.StageActive, 3*time.Minute, nil),
		client(domain.StageDead, 4*time.Minute, nil),
	}
	svc := newService(clients, nil)

	funnel, err := svc.Funnel(context.Background())
	if err != nil {
		t.Fatalf("funnel: %v", err)
	}
	if funnel.TotalClients != 5 {
		t.Fatalf("total = %d, want 5", funnel.TotalClients)
	}

	counts := make(map[string]int)
	for _, s := range funnel.Stages {
		counts[s.Stage] = s.Count
	}
	if counts["cold_lead"] != 2 || counts["warm_lead"] != 1 || counts["active"] != 1 || counts["dead"] != 1 {
		t.Errorf("stage counts = %v", counts)
	}

	// 3 of 5 identities reached warm or beyond; 2 of those 3 reached active
	// or beyond (the dead one was once active).
	if got, want := funnel.ColdToWarmRate, 3.0/5.0; got != want {
		t.Errorf("cold->warm = %v, want %v", got, want)
	}
	if got, want := funnel.WarmToActiveRate, 2.0/3.0; got != want {
		t.Errorf("warm->active = %v, want %v", got, want)
	}
}

func TestFunnelMergesDuplicatesBeforeCounting(t *testing.T) {
	email := "dup@example.com"
	clients := []clientsrepo.Client{
		client(domain.StageColdLead, 0, func(c *clientsrepo.Client) { c.Email = &email }),
		client(domain.StageActive, time.Minute, func(c *clientsrepo.Client) { c.Email = &email }),
	}
	svc := newService(clients, nil)

	funnel, err := svc.Funnel(context.Background())
	if err != nil {
		t.Fatalf("funnel: %v", err)
	}
	if funnel.TotalClients != 1 {
		t.Fatalf("duplicates must collapse to one identity, got %d", funnel.TotalClients)
	}
	for _, s := range funnel.Stages {
		if s.Stage == "active" && s.Count != 1 {
			t.Errorf("merged identity must count at the arbitrated stage")
		}
	}
}

func TestFunnelEmptyDataset(t *testing.T) {
	svc := newService(nil, nil)

	funnel, err := svc.Funnel(context.Background())
	if err != nil {
		t.Fatalf("funnel: %v", err)
	}
	if funnel.ColdToWarmRate != 0 || funnel.WarmToActiveRate != 0 {
		t.Errorf("empty funnel must not divide by zero")
	}
}

func TestRevenueZeroFillsMonths(t *testing.T) {
	buckets := []paymentsrepo.MonthRevenue{
		{Month: time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), AmountCents: 50000},
	}
	svc := newService(nil, buckets)

	resp, err := svc.Revenue(context.Background(), 3)
	if err != nil {
		t.Fatalf("revenue: %v", err)
	}
	if len(resp.Months) != 3 {
		t.Fatalf("month count = %d, want 3", len(resp.Months))
	}
	if resp.Months[0].Month != "2026-03" || resp.Months[2].Month != "2026-05" {
		t.Errorf("window = %s .. %s", resp.Months[0].Month, resp.Months[2].Month)
	}
	if resp.Months[1].AmountCents != 50000 {
		t.Errorf("April bucket = %d, want 50000", resp.Months[1].AmountCents)
	}
	if resp.Months[0].AmountCents != 0 || resp.Months[2].AmountCents != 0 {
		t.Errorf("empty months must be zero-filled")
	}
}

func TestRevenueRanksTopContributorsOverMergedIdentities(t *testing.T) {
	email := "big@example.com"
	clients := []clientsrepo.Client{
		client(domain.StageActive, 0, func(c *clientsrepo.Client) {
			c.Email = &email
			c.LifetimeRevenueCents = 100000
			c.EstimatedMRRCents = 9900
		}),
		client(domain.StageActive, time.Minute, func(c *clientsrepo.Client) {
			c.Email = &email
			c.LifetimeRevenueCents = 80000
		}),
		client(domain.StageActive, 2*time.Minute, func(c *clientsrepo.Client) {
			c.LifetimeRevenueCents = 30000
			c.EstimatedMRRCents = 5000
		}),
		client(domain.StageColdLead, 3*time.Minute, nil),
	}
	svc := newService(clients, nil)

	resp, err := svc.Revenue(context.Background(), 1)
	if err != nil {
		t.Fatalf("revenue: %v", err)
	}

	// Merged identity takes the max of its members, not the sum.
	if len(resp.TopContributors) != 2 {
		t.Fatalf("contributors = %d, want 2 (zero-revenue excluded)", len(resp.TopContributors))
	}
	if resp.TopContributors[0].LifetimeRevenueCents != 100000 {
		t.Errorf("top contributor revenue = %d, want 100000", resp.TopContributors[0].LifetimeRevenueCents)
	}
	if resp.CurrentMRRCents != 14900 {
		t.Errorf("MRR total = %d, want 14900", resp.CurrentMRRCents)
	}
}

package service

import (
	"context"
	"sort"
	"time"

	"coachdesk_backend/internal/analytics/transport"
	"coachdesk_backend/internal/clients/domain"
	clientsrepo "coachdesk_backend/internal/clients/repository"
	paymentsrepo "coachdesk_backend/internal/payments/repository"
	"coachdesk_backend/platform/logger"
)

const (
	defaultMonths   = 6
	maxMonths       = 24
	topContributors = 10
	monthLayout     = "2006-01"
)

// ClientSource is the slice of the clients repository the read models use.
type ClientSource interface {
	List(ctx context.Context, params clientsrepo.ListParams) ([]clientsrepo.Client, error)
}

// RevenueSource is the slice of the payments repository the read models use.
type RevenueSource interface {
	MonthlyRevenue(ctx context.Context, months int) ([]paymentsrepo.MonthRevenue, error)
}

// Service computes funnel and revenue read models over the consolidated
// client view. Everything here is derived on demand; nothing is persisted.
type Service struct {
	clients  ClientSource
	payments RevenueSource
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new analytics service.
func New(clients ClientSource, payments RevenueSource, log *logger.Logger) *Service {
	return &Service{clients: clients, payments: payments, log: log, now: time.Now}
}

// WithClock overrides the service clock for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Funnel computes merged-client counts per stage and the stage-to-stage
// conversion rates along the acquisition path. A conversion rate is the share
// of identities that reached at least the later stage among those that
// reached at least the earlier one.
func (s *Service) Funnel(ctx context.Context) (transport.FunnelResponse, error) {
	merged, err := s.consolidated(ctx)
	if err != nil {
		return transport.FunnelResponse{}, err
	}

	counts := make(map[domain.Stage]int)
	for _, m := range merged {
		counts[m.Stage]++
	}

	resp := transport.FunnelResponse{TotalClients: len(merged)}
	for _, stage := range domain.AllStages() {
		resp.Stages = append(resp.Stages, transport.FunnelStage{
			Stage: string(stage),
			Count: counts[stage],
		})
	}

	// Offboarded and dead identities were once active, so they count as
	// having passed every acquisition stage.
	reachedWarm := counts[domain.StageWarmLead] + counts[domain.StageActive] +
		counts[domain.StageOffboarding] + counts[domain.StageDead]
	reachedActive := counts[domain.StageActive] + counts[domain.StageOffboarding] + counts[domain.StageDead]
	reachedCold := counts[domain.StageColdLead] + reachedWarm

	resp.ColdToWarmRate = ratio(reachedWarm, reachedCold)
	resp.WarmToActiveRate = ratio(reachedActive, reachedWarm)
	return resp, nil
}

// Revenue computes the revenue dashboard: cash collected per calendar month,
// the current MRR total, and the top revenue contributors among merged
// identities.
func (s *Service) Revenue(ctx context.Context, months int) (transport.RevenueResponse, error) {
	if months <= 0 {
		months = defaultMonths
	}
	if months > maxMonths {
		months = maxMonths
	}

	buckets, err := s.payments.MonthlyRevenue(ctx, months)
	if err != nil {
		return transport.RevenueResponse{}, err
	}

	byMonth := make(map[string]int64, len(buckets))
	for _, b := range buckets {
		byMonth[b.Month.Format(monthLayout)] = b.AmountCents
	}

	// Emit a bucket for every month in the window, zero-filled.
	now := s.now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	resp := transport.RevenueResponse{Months: make([]transport.MonthRevenue, 0, months)}
	for i := 0; i < months; i++ {
		month := first.AddDate(0, i, 0).Format(monthLayout)
		resp.Months = append(resp.Months, transport.MonthRevenue{
			Month:       month,
			AmountCents: byMonth[month],
		})
	}

	merged, err := s.consolidated(ctx)
	if err != nil {
		return transport.RevenueResponse{}, err
	}

	for _, m := range merged {
		resp.CurrentMRRCents += m.EstimatedMRRCents
	}

	ranked := append([]domain.Merged(nil), merged...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].LifetimeRevenueCents != ranked[j].LifetimeRevenueCents {
			return ranked[i].LifetimeRevenueCents > ranked[j].LifetimeRevenueCents
		}
		return ranked[i].ID.String() < ranked[j].ID.String()
	})
	for _, m := range ranked {
		if len(resp.TopContributors) == topContributors {
			break
		}
		if m.LifetimeRevenueCents == 0 {
			break
		}
		resp.TopContributors = append(resp.TopContributors, transport.TopContributor{
			ClientID:             m.ID,
			DisplayName:          m.MergedNames,
			LifetimeRevenueCents: m.LifetimeRevenueCents,
		})
	}
	return resp, nil
}

func (s *Service) consolidated(ctx context.Context) ([]domain.Merged, error) {
	clients, err := s.clients.List(ctx, clientsrepo.ListParams{})
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, len(clients))
	for i, c := range clients {
		records[i] = c.ToDomain()
	}
	return domain.Consolidate(records, s.now()), nil
}

func ratio(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

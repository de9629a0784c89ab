package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"coachdesk_backend/internal/events"
	"coachdesk_backend/internal/payments/repository"
	"coachdesk_backend/internal/payments/stripe"
	"coachdesk_backend/internal/payments/transport"
	"coachdesk_backend/platform/apperr"
	"coachdesk_backend/platform/logger"
)

// linkFanout bounds concurrent charge linking against the database.
const linkFanout = 8

// StripeAPI is the slice of the Stripe client the sync uses.
type StripeAPI interface {
	ListCharges(ctx context.Context) ([]stripe.Charge, error)
	ListActiveSubscriptions(ctx context.Context) ([]stripe.Subscription, error)
}

// Service provides payment history and the Stripe synchronization run.
type Service struct {
	repo      repository.Repository
	stripeAPI StripeAPI
	directory ClientDirectory
	bus       events.Bus
	log       *logger.Logger
}

// New creates a new payments service. stripeAPI may be nil when Stripe is not
// configured; Sync then reports a validation error.
func New(repo repository.Repository, stripeAPI StripeAPI, directory ClientDirectory, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, stripeAPI: stripeAPI, directory: directory, bus: bus, log: log}
}

// GetClientPayments returns the payment history across a merged identity:
// the union of payments linked to any member id or any member's Stripe
// customer id, deduplicated by processor payment id.
func (s *Service) GetClientPayments(ctx context.Context, clientID uuid.UUID, mergedIDs []uuid.UUID) (transport.PaymentHistoryResponse, error) {
	ids := []uuid.UUID{clientID}
	for _, id := range mergedIDs {
		if id != clientID {
			ids = append(ids, id)
		}
	}

	customerIDs, err := s.directory.StripeCustomerIDs(ctx, ids)
	if err != nil {
		return transport.PaymentHistoryResponse{}, err
	}

	payments, err := s.repo.ListForIdentity(ctx, ids, customerIDs)
	if err != nil {
		return transport.PaymentHistoryResponse{}, err
	}

	resp := transport.PaymentHistoryResponse{Payments: make([]transport.PaymentResponse, len(payments))}
	for i, p := range payments {
		resp.Payments[i] = toPaymentResponse(p)
		if p.Status == repository.StatusSucceeded {
			resp.TotalAmountPaidCents += p.AmountCents
		}
	}
	return resp, nil
}

// RequestSync enqueues a background sync run.
func (s *Service) RequestSync(ctx context.Context, enqueuer SyncEnqueuer) (transport.SyncTriggeredResponse, error) {
	if enqueuer == nil {
		return transport.SyncTriggeredResponse{}, apperr.Validation("background sync is not configured")
	}
	if err := enqueuer.EnqueueStripeSync(ctx); err != nil {
		return transport.SyncTriggeredResponse{}, err
	}
	return transport.SyncTriggeredResponse{Enqueued: true}, nil
}

// Sync pulls every charge and active subscription from Stripe, upserts
// payment records deduplicated by processor payment id, links them to
// clients by customer id with a normalized-email fallback, and recomputes
// per-client revenue figures. Revenue writes are monotonic non-decreasing.
func (s *Service) Sync(ctx context.Context) (transport.SyncStats, error) {
	if s.stripeAPI == nil {
		return transport.SyncStats{}, apperr.Validation("stripe is not configured")
	}

	startedAt := time.Now()

	var charges []stripe.Charge
	var subscriptions []stripe.Subscription
	fetch, fetchCtx := errgroup.WithContext(ctx)
	fetch.Go(func() error {
		var err error
		charges, err = s.stripeAPI.ListCharges(fetchCtx)
		return err
	})
	fetch.Go(func() error {
		var err error
		subscriptions, err = s.stripeAPI.ListActiveSubscriptions(fetchCtx)
		return err
	})
	if err := fetch.Wait(); err != nil {
		return transport.SyncStats{}, err
	}

	var mu sync.Mutex
	stats := transport.SyncStats{ChargesSeen: len(charges)}
	lifetime := make(map[uuid.UUID]int64)
	customerClient := make(map[string]*uuid.UUID)

	link, linkCtx := errgroup.WithContext(ctx)
	link.SetLimit(linkFanout)
	for _, charge := range charges {
		charge := charge
		link.Go(func() error {
			clientID := s.resolveClient(linkCtx, charge, &mu, customerClient)

			status := chargeStatus(charge)
			params := repository.UpsertParams{
				StripePaymentID: &charge.ID,
				ClientID:        clientID,
				AmountCents:     charge.Amount,
				Currency:        strings.ToLower(charge.Currency),
				Status:          status,
				PaidAt:          charge.CreatedAt(),
			}
			if charge.Customer != "" {
				params.StripeCustomerID = &charge.Customer
			}

			_, inserted, err := s.repo.Upsert(linkCtx, params)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			if inserted {
				stats.PaymentsUpserted++
			}
			if clientID != nil {
				stats.ClientsLinked++
				if status == repository.StatusSucceeded {
					lifetime[*clientID] += charge.Amount
				}
			}
			return nil
		})
	}
	if err := link.Wait(); err != nil {
		return stats, err
	}

	mrr := make(map[uuid.UUID]int64)
	for _, sub := range subscriptions {
		if sub.Customer == "" {
			continue
		}
		clientID, ok := customerClient[sub.Customer]
		if !ok {
			resolved, err := s.directory.FindByStripeCustomerID(ctx, sub.Customer)
			if err != nil {
				continue
			}
			clientID = &resolved.ID
		}
		if clientID != nil {
			mrr[*clientID] += sub.MonthlyAmountCents()
		}
	}

	figures := mergeRevenueFigures(lifetime, mrr)
	if len(figures) > 0 {
		if err := s.directory.ApplyRevenue(ctx, figures); err != nil {
			return stats, err
		}
	}

	s.bus.Publish(ctx, events.PaymentsSynced{
		BaseEvent:        events.NewBaseEvent(),
		ChargesSeen:      stats.ChargesSeen,
		PaymentsUpserted: stats.PaymentsUpserted,
		ClientsLinked:    stats.ClientsLinked,
		StartedAt:        startedAt,
	})
	s.log.Info("stripe sync completed",
		"charges", stats.ChargesSeen,
		"upserted", stats.PaymentsUpserted,
		"linked", stats.ClientsLinked,
	)
	return stats, nil
}

// resolveClient links a charge to a client by customer id first, then by the
// billing email. Lookups are cached per customer for the run.
func (s *Service) resolveClient(ctx context.Context, charge stripe.Charge, mu *sync.Mutex, cache map[string]*uuid.UUID) *uuid.UUID {
	if charge.Customer != "" {
		mu.Lock()
		cached, ok := cache[charge.Customer]
		mu.Unlock()
		if ok {
			return cached
		}
	}

	var clientID *uuid.UUID
	if charge.Customer != "" {
		if client, err := s.directory.FindByStripeCustomerID(ctx, charge.Customer); err == nil {
			clientID = &client.ID
		}
	}
	if clientID == nil && charge.BillingDetails.Email != "" {
		if client, err := s.directory.FindByEmail(ctx, charge.BillingDetails.Email); err == nil {
			clientID = &client.ID
		}
	}

	if charge.Customer != "" {
		mu.Lock()
		cache[charge.Customer] = clientID
		mu.Unlock()
	}
	return clientID
}

func chargeStatus(charge stripe.Charge) string {
	switch {
	case charge.Refunded:
		return repository.StatusRefunded
	case charge.Paid && charge.Status == "succeeded":
		return repository.StatusSucceeded
	default:
		return repository.StatusFailed
	}
}

func mergeRevenueFigures(lifetime, mrr map[uuid.UUID]int64) []RevenueFigures {
	byClient := make(map[uuid.UUID]*RevenueFigures)
	for id, cents := range lifetime {
		byClient[id] = &RevenueFigures{ClientID: id, LifetimeRevenueCents: cents}
	}
	for id, cents := range mrr {
		if f, ok := byClient[id]; ok {
			f.EstimatedMRRCents = cents
			continue
		}
		byClient[id] = &RevenueFigures{ClientID: id, EstimatedMRRCents: cents}
	}

	figures := make([]RevenueFigures, 0, len(byClient))
	for _, f := range byClient {
		figures = append(figures, *f)
	}
	return figures
}

func toPaymentResponse(p repository.Payment) transport.PaymentResponse {
	return transport.PaymentResponse{
		ID:               p.ID,
		StripePaymentID:  p.StripePaymentID,
		StripeCustomerID: p.StripeCustomerID,
		ClientID:         p.ClientID,
		AmountCents:      p.AmountCents,
		Currency:         p.Currency,
		Status:           p.Status,
		SubscriptionID:   p.SubscriptionID,
		PaidAt:           p.PaidAt,
	}
}

// Package adapters wires bounded contexts together without letting them
// import each other directly.
package adapters

import (
	"context"

	"github.com/google/uuid"

	"coachdesk_backend/internal/clients/domain"
	clientsrepo "coachdesk_backend/internal/clients/repository"
	paymentssvc "coachdesk_backend/internal/payments/service"
	"coachdesk_backend/platform/apperr"
)

// ClientDirectory adapts the clients repository to the payments context's
// directory port.
type ClientDirectory struct {
	repo clientsrepo.Repository
}

// NewClientDirectory creates the adapter.
func NewClientDirectory(repo clientsrepo.Repository) *ClientDirectory {
	return &ClientDirectory{repo: repo}
}

var _ paymentssvc.ClientDirectory = (*ClientDirectory)(nil)

func (d *ClientDirectory) FindByStripeCustomerID(ctx context.Context, stripeCustomerID string) (paymentssvc.LinkedClient, error) {
	client, err := d.repo.GetByStripeCustomerID(ctx, stripeCustomerID)
	if err != nil {
		return paymentssvc.LinkedClient{}, err
	}
	return toLinkedClient(client), nil
}

func (d *ClientDirectory) FindByEmail(ctx context.Context, email string) (paymentssvc.LinkedClient, error) {
	normalized := domain.NormalizeEmail(email)
	if normalized == "" {
		return paymentssvc.LinkedClient{}, apperr.NotFound("client not found")
	}
	client, err := d.repo.GetByNormalizedEmail(ctx, normalized)
	if err != nil {
		return paymentssvc.LinkedClient{}, err
	}
	return toLinkedClient(client), nil
}

func (d *ClientDirectory) StripeCustomerIDs(ctx context.Context, clientIDs []uuid.UUID) ([]string, error) {
	seen := make(map[string]struct{}, len(clientIDs))
	var ids []string
	for _, clientID := range clientIDs {
		client, err := d.repo.GetByID(ctx, clientID)
		if err != nil {
			if apperr.GetKind(err) == apperr.KindNotFound {
				continue
			}
			return nil, err
		}
		if client.StripeCustomerID == nil {
			continue
		}
		if _, dup := seen[*client.StripeCustomerID]; dup {
			continue
		}
		seen[*client.StripeCustomerID] = struct{}{}
		ids = append(ids, *client.StripeCustomerID)
	}
	return ids, nil
}

func (d *ClientDirectory) ApplyRevenue(ctx context.Context, figures []paymentssvc.RevenueFigures) error {
	updates := make([]clientsrepo.RevenueUpdate, len(figures))
	for i, f := range figures {
		updates[i] = clientsrepo.RevenueUpdate{
			ClientID:             f.ClientID,
			LifetimeRevenueCents: f.LifetimeRevenueCents,
			EstimatedMRRCents:    f.EstimatedMRRCents,
		}
	}
	return d.repo.UpdateRevenue(ctx, updates)
}

func toLinkedClient(client clientsrepo.Client) paymentssvc.LinkedClient {
	return paymentssvc.LinkedClient{
		ID:               client.ID,
		StripeCustomerID: client.StripeCustomerID,
	}
}

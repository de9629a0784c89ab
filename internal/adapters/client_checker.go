package adapters

import (
	"context"

	"github.com/google/uuid"

	checkinssvc "coachdesk_backend/internal/checkins/service"
	clientsrepo "coachdesk_backend/internal/clients/repository"
)

// ClientChecker adapts the clients repository to the check-ins context's
// existence check.
type ClientChecker struct {
	repo clientsrepo.ClientReader
}

// NewClientChecker creates the adapter.
func NewClientChecker(repo clientsrepo.ClientReader) *ClientChecker {
	return &ClientChecker{repo: repo}
}

var _ checkinssvc.ClientChecker = (*ClientChecker)(nil)

func (c *ClientChecker) ClientExists(ctx context.Context, clientID uuid.UUID) error {
	_, err := c.repo.GetByID(ctx, clientID)
	return err
}

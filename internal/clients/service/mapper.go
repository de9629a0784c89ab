package service

import (
	"strings"
	"time"

	"coachdesk_backend/internal/clients/domain"
	"coachdesk_backend/internal/clients/repository"
	"coachdesk_backend/internal/clients/transport"
)

func toDomainRecords(clients []repository.Client) []domain.Record {
	records := make([]domain.Record, len(clients))
	for i, c := range clients {
		records[i] = c.ToDomain()
	}
	return records
}

func toClientResponse(c repository.Client, now time.Time) transport.ClientResponse {
	return transport.ClientResponse{
		ID:                     c.ID,
		FirstName:              c.FirstName,
		LastName:               c.LastName,
		Email:                  c.Email,
		Phone:                  c.Phone,
		LifecycleState:         transport.LifecycleState(c.LifecycleState),
		EstimatedMRRCents:      c.EstimatedMRRCents,
		LifetimeRevenueCents:   c.LifetimeRevenueCents,
		ProgramStartDate:       formatDate(c.ProgramStartDate),
		ProgramEndDate:         formatDate(c.ProgramEndDate),
		ProgramDurationDays:    c.ProgramDurationDays,
		ProgramProgressPercent: c.ToDomain().ProgressPercentAt(now),
		StripeCustomerID:       c.StripeCustomerID,
		SortOrders:             c.SortOrders,
		CreatedAt:              c.CreatedAt,
		UpdatedAt:              c.UpdatedAt,
	}
}

func toMergedResponse(m domain.Merged, stage domain.Stage, now time.Time) transport.MergedClientResponse {
	return transport.MergedClientResponse{
		ID:                     m.ID,
		MergedClientIDs:        m.MergedClientIDs,
		MergedNames:            m.MergedNames,
		Email:                  m.Email,
		Phone:                  m.Phone,
		LifecycleState:         transport.LifecycleState(m.Stage),
		EstimatedMRRCents:      m.EstimatedMRRCents,
		LifetimeRevenueCents:   m.LifetimeRevenueCents,
		ProgramProgressPercent: m.ProgressPercentAt(now),
		StripeCustomerID:       m.StripeCustomerID,
		SortOrder:              m.SortOrderFor(stage),
		CreatedAt:              m.CreatedAt,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(transport.DateLayout)
	return &s
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := time.Parse(transport.DateLayout, strings.TrimSpace(*s))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

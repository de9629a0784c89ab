package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"coachdesk_backend/internal/clients/domain"
	"coachdesk_backend/internal/clients/repository"
	"coachdesk_backend/internal/clients/transport"
	"coachdesk_backend/internal/events"
	"coachdesk_backend/platform/apperr"
	"coachdesk_backend/platform/logger"
	"coachdesk_backend/platform/phone"
)

// Service provides business logic for client records, the consolidated board
// view, and pipeline transitions.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
	now  func() time.Time
}

// New creates a new clients service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log, now: time.Now}
}

// WithClock overrides the service clock. Tests use this to pin derived
// progress computations.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetByID retrieves a single raw client record.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.ClientResponse, error) {
	client, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ClientResponse{}, err
	}
	return toClientResponse(client, s.now()), nil
}

// List retrieves raw client records with optional lifecycle and search filters.
func (s *Service) List(ctx context.Context, req transport.ListClientsRequest) (transport.ClientListResponse, error) {
	params := repository.ListParams{Search: strings.TrimSpace(req.Search)}
	if req.LifecycleState != nil {
		state := string(*req.LifecycleState)
		params.LifecycleState = &state
	}

	clients, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.ClientListResponse{}, err
	}

	now := s.now()
	items := make([]transport.ClientResponse, len(clients))
	for i, c := range clients {
		items[i] = toClientResponse(c, now)
	}
	return transport.ClientListResponse{Items: items, Total: len(items)}, nil
}

// Board builds the kanban read model: every stage column with its merged
// client entities in manual order. The consolidation is recomputed from the
// raw records on each call and never persisted.
func (s *Service) Board(ctx context.Context) (transport.BoardResponse, error) {
	clients, err := s.repo.List(ctx, repository.ListParams{})
	if err != nil {
		return transport.BoardResponse{}, err
	}

	now := s.now()
	merged := domain.Consolidate(toDomainRecords(clients), now)

	byStage := make(map[domain.Stage][]domain.Merged)
	for _, m := range merged {
		byStage[m.Stage] = append(byStage[m.Stage], m)
	}

	columns := make([]transport.BoardColumnResponse, 0, len(domain.AllStages()))
	for _, stage := range domain.AllStages() {
		column := domain.OrderColumn(byStage[stage], stage)
		cards := make([]transport.MergedClientResponse, len(column))
		for i, m := range column {
			cards[i] = toMergedResponse(m, stage, now)
		}
		columns = append(columns, transport.BoardColumnResponse{
			Stage:   transport.LifecycleState(stage),
			Clients: cards,
		})
	}
	return transport.BoardResponse{Columns: columns}, nil
}

// Create creates a new client record. At least one of name, email, or phone
// must be present so the record is reachable by some identity key.
func (s *Service) Create(ctx context.Context, req transport.CreateClientRequest) (transport.ClientResponse, error) {
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	email := trimmedOrNil(req.Email)
	if firstName == "" && lastName == "" && email == nil && req.Phone == nil {
		return transport.ClientResponse{}, apperr.Validation("at least one of name, email, or phone is required")
	}

	var phoneNumber *string
	if req.Phone != nil {
		if normalized := phone.NormalizeE164(*req.Phone); normalized != "" {
			phoneNumber = &normalized
		}
	}

	state := string(domain.StageColdLead)
	if req.LifecycleState != "" {
		state = string(req.LifecycleState)
	}

	startDate, err := parseDate(req.ProgramStartDate)
	if err != nil {
		return transport.ClientResponse{}, apperr.Validation("invalid programStartDate")
	}
	endDate, err := parseDate(req.ProgramEndDate)
	if err != nil {
		return transport.ClientResponse{}, apperr.Validation("invalid programEndDate")
	}

	client, err := s.repo.Create(ctx, repository.CreateParams{
		FirstName:           firstName,
		LastName:            lastName,
		Email:               email,
		Phone:               phoneNumber,
		LifecycleState:      state,
		ProgramStartDate:    startDate,
		ProgramEndDate:      endDate,
		ProgramDurationDays: req.ProgramDurationDays,
		StripeCustomerID:    req.StripeCustomerID,
	})
	if err != nil {
		return transport.ClientResponse{}, err
	}

	s.bus.Publish(ctx, events.ClientCreated{
		BaseEvent:      events.NewBaseEvent(),
		ClientID:       client.ID,
		DisplayName:    client.ToDomain().DisplayName(),
		LifecycleState: client.LifecycleState,
	})

	return toClientResponse(client, s.now()), nil
}

// Update applies a partial update. Explicit JSON null clears a nullable
// field; an omitted field is left untouched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateClientRequest) (transport.ClientResponse, error) {
	client, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ClientResponse{}, err
	}

	previousState := client.LifecycleState

	if req.FirstName != nil {
		client.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		client.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email.Set {
		client.Email = trimmedOrNil(req.Email.Value)
	}
	if req.Phone.Set {
		client.Phone = nil
		if req.Phone.Value != nil {
			if normalized := phone.NormalizeE164(*req.Phone.Value); normalized != "" {
				client.Phone = &normalized
			}
		}
	}
	if req.LifecycleState != nil {
		if !domain.IsKnownStage(domain.Stage(*req.LifecycleState)) {
			return transport.ClientResponse{}, apperr.Validation("unknown lifecycle state")
		}
		client.LifecycleState = string(*req.LifecycleState)
	}
	if req.ProgramStartDate.Set {
		client.ProgramStartDate = req.ProgramStartDate.Value
	}
	if req.ProgramEndDate.Set {
		client.ProgramEndDate = req.ProgramEndDate.Value
	}
	if req.ProgramDurationDays.Set {
		client.ProgramDurationDays = req.ProgramDurationDays.Value
	}
	if req.StripeCustomerID.Set {
		client.StripeCustomerID = req.StripeCustomerID.Value
	}

	updated, err := s.repo.Save(ctx, client)
	if err != nil {
		return transport.ClientResponse{}, err
	}

	if updated.LifecycleState != previousState {
		s.bus.Publish(ctx, events.ClientStageChanged{
			BaseEvent:   events.NewBaseEvent(),
			ClientID:    updated.ID,
			DisplayName: updated.ToDomain().DisplayName(),
			FromState:   previousState,
			ToState:     updated.LifecycleState,
		})
	}

	return toClientResponse(updated, s.now()), nil
}

// Delete removes a client record. With cascadeMerged set, every record that
// shares the target's merged identity is removed in the same call.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, cascadeMerged bool) (transport.DeleteClientResponse, error) {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.DeleteClientResponse{}, err
	}

	ids := []uuid.UUID{target.ID}
	if cascadeMerged {
		clients, err := s.repo.List(ctx, repository.ListParams{})
		if err != nil {
			return transport.DeleteClientResponse{}, err
		}
		for _, m := range domain.Consolidate(toDomainRecords(clients), s.now()) {
			if domain.IndexOf(m.MergedClientIDs, id) >= 0 {
				ids = m.MergedClientIDs
				break
			}
		}
	}

	if err := s.repo.Delete(ctx, ids); err != nil {
		return transport.DeleteClientResponse{}, err
	}

	s.bus.Publish(ctx, events.ClientDeleted{
		BaseEvent: events.NewBaseEvent(),
		ClientIDs: ids,
		Cascaded:  cascadeMerged && len(ids) > 1,
	})

	return transport.DeleteClientResponse{DeletedIDs: ids}, nil
}

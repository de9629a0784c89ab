package service

import (
	"context"

	"github.com/google/uuid"

	"coachdesk_backend/internal/checkins/repository"
	"coachdesk_backend/internal/checkins/transport"
	"coachdesk_backend/internal/events"
	"coachdesk_backend/platform/apperr"
	"coachdesk_backend/platform/logger"
)

// ClientChecker verifies that a client record exists before a check-in is
// scheduled against it.
type ClientChecker interface {
	ClientExists(ctx context.Context, clientID uuid.UUID) error
}

// Service provides business logic for calendar check-ins. Completing a
// check-in never touches the client's lifecycle state; stage transitions are
// owned by the clients module.
type Service struct {
	repo    repository.Repository
	clients ClientChecker
	bus     events.Bus
	log     *logger.Logger
}

// New creates a new check-ins service.
func New(repo repository.Repository, clients ClientChecker, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, clients: clients, bus: bus, log: log}
}

// List retrieves check-ins for a calendar range.
func (s *Service) List(ctx context.Context, req transport.ListCheckInsRequest) (transport.CheckInListResponse, error) {
	checkIns, err := s.repo.List(ctx, repository.ListParams{
		From:     req.From,
		To:       req.To,
		ClientID: req.ClientID,
	})
	if err != nil {
		return transport.CheckInListResponse{}, err
	}

	items := make([]transport.CheckInResponse, len(checkIns))
	for i, ci := range checkIns {
		items[i] = toResponse(ci)
	}
	return transport.CheckInListResponse{Items: items, Total: len(items)}, nil
}

// Create schedules a new check-in.
func (s *Service) Create(ctx context.Context, req transport.CreateCheckInRequest) (transport.CheckInResponse, error) {
	if err := s.clients.ClientExists(ctx, req.ClientID); err != nil {
		return transport.CheckInResponse{}, err
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = 30
	}

	checkIn, err := s.repo.Create(ctx, repository.CreateParams{
		ClientID:        req.ClientID,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: duration,
		Notes:           req.Notes,
	})
	if err != nil {
		return transport.CheckInResponse{}, err
	}
	return toResponse(checkIn), nil
}

// Update reschedules or annotates a check-in. Completed and cancelled
// check-ins are immutable.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateCheckInRequest) (transport.CheckInResponse, error) {
	checkIn, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CheckInResponse{}, err
	}
	if checkIn.Status != repository.StatusScheduled {
		return transport.CheckInResponse{}, apperr.Conflict("only scheduled check-ins can be updated")
	}

	if req.ScheduledAt != nil {
		checkIn.ScheduledAt = *req.ScheduledAt
	}
	if req.DurationMinutes != nil {
		checkIn.DurationMinutes = *req.DurationMinutes
	}
	if req.Notes != nil {
		checkIn.Notes = req.Notes
	}

	updated, err := s.repo.Save(ctx, checkIn)
	if err != nil {
		return transport.CheckInResponse{}, err
	}
	return toResponse(updated), nil
}

// Complete marks a check-in as completed.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, req transport.CompleteCheckInRequest) (transport.CheckInResponse, error) {
	checkIn, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CheckInResponse{}, err
	}
	if checkIn.Status == repository.StatusCancelled {
		return transport.CheckInResponse{}, apperr.Conflict("cancelled check-ins cannot be completed")
	}

	checkIn.Status = repository.StatusCompleted
	if req.Notes != nil {
		checkIn.Notes = req.Notes
	}

	updated, err := s.repo.Save(ctx, checkIn)
	if err != nil {
		return transport.CheckInResponse{}, err
	}

	s.bus.Publish(ctx, events.CheckInCompleted{
		BaseEvent: events.NewBaseEvent(),
		CheckInID: updated.ID,
		ClientID:  updated.ClientID,
	})
	return toResponse(updated), nil
}

// Cancel marks a check-in as cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (transport.CheckInResponse, error) {
	checkIn, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CheckInResponse{}, err
	}
	if checkIn.Status == repository.StatusCompleted {
		return transport.CheckInResponse{}, apperr.Conflict("completed check-ins cannot be cancelled")
	}

	checkIn.Status = repository.StatusCancelled
	updated, err := s.repo.Save(ctx, checkIn)
	if err != nil {
		return transport.CheckInResponse{}, err
	}
	return toResponse(updated), nil
}

// Delete removes a check-in.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func toResponse(ci repository.CheckIn) transport.CheckInResponse {
	return transport.CheckInResponse{
		ID:              ci.ID,
		ClientID:        ci.ClientID,
		ScheduledAt:     ci.ScheduledAt,
		DurationMinutes: ci.DurationMinutes,
		Status:          ci.Status,
		Notes:           ci.Notes,
		CreatedAt:       ci.CreatedAt,
		UpdatedAt:       ci.UpdatedAt,
	}
}

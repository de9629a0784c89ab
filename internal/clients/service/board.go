package service

import (
	"context"

	"github.com/google/uuid"

	"coachdesk_backend/internal/clients/domain"
	"coachdesk_backend/internal/clients/repository"
	"coachdesk_backend/internal/clients/transport"
	"coachdesk_backend/internal/events"
	"coachdesk_backend/platform/apperr"
)

// Move transitions a client to another board column, optionally landing at a
// specific card index. A move to the current stage with no index change is an
// idempotent no-op. Leaving offboarding clears the program timeline so no
// stale derived progress can pull the client straight back.
func (s *Service) Move(ctx context.Context, id uuid.UUID, req transport.MoveClientRequest) (transport.MoveClientResponse, error) {
	target := domain.Stage(req.TargetState)
	if !domain.IsKnownStage(target) {
		return transport.MoveClientResponse{}, apperr.Validation("unknown lifecycle state")
	}

	client, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.MoveClientResponse{}, err
	}

	stageChanged := client.LifecycleState != string(target)
	if !stageChanged && req.TargetIndex == nil {
		return transport.MoveClientResponse{Client: toClientResponse(client, s.now()), Moved: false}, nil
	}

	previousState := client.LifecycleState
	if stageChanged {
		clearProgram := previousState == string(domain.StageOffboarding)
		client, err = s.repo.UpdateStage(ctx, id, string(target), clearProgram)
		if err != nil {
			return transport.MoveClientResponse{}, err
		}
	}

	if req.TargetIndex != nil {
		if err := s.placeInColumn(ctx, id, target, *req.TargetIndex); err != nil {
			return transport.MoveClientResponse{}, err
		}
		client, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return transport.MoveClientResponse{}, err
		}
	}

	if stageChanged {
		s.bus.Publish(ctx, events.ClientStageChanged{
			BaseEvent:   events.NewBaseEvent(),
			ClientID:    client.ID,
			DisplayName: client.ToDomain().DisplayName(),
			FromState:   previousState,
			ToState:     client.LifecycleState,
		})
	}

	return transport.MoveClientResponse{Client: toClientResponse(client, s.now()), Moved: true}, nil
}

// ReorderColumn moves one card to a new index within its column and persists
// a sequential sort order for every card in that column in one transaction.
func (s *Service) ReorderColumn(ctx context.Context, stage domain.Stage, req transport.ReorderColumnRequest) error {
	if !domain.IsKnownStage(stage) {
		return apperr.Validation("unknown lifecycle state")
	}

	column, err := s.loadColumn(ctx, stage)
	if err != nil {
		return err
	}

	order := make([]uuid.UUID, len(column))
	fromIndex := -1
	for i, m := range column {
		order[i] = m.ID
		if domain.IndexOf(m.MergedClientIDs, req.ClientID) >= 0 {
			fromIndex = i
		}
	}
	if fromIndex == -1 {
		return apperr.NotFound("client not found in column")
	}

	toIndex := req.TargetIndex
	if toIndex >= len(order) {
		toIndex = len(order) - 1
	}

	reordered, err := domain.SpliceReorder(order, fromIndex, toIndex)
	if err != nil {
		return apperr.Validation(err.Error())
	}

	// Every member record of a merged card gets the card's position so the
	// representative choice never changes the column order.
	memberIDs := make(map[uuid.UUID][]uuid.UUID, len(column))
	for _, m := range column {
		memberIDs[m.ID] = m.MergedClientIDs
	}
	var updates []repository.SortOrderUpdate
	for position, cardID := range reordered {
		for _, memberID := range memberIDs[cardID] {
			updates = append(updates, repository.SortOrderUpdate{ClientID: memberID, Position: position})
		}
	}

	if err := s.repo.UpdateSortOrders(ctx, string(stage), updates); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.BoardReordered{
		BaseEvent: events.NewBaseEvent(),
		Stage:     string(stage),
		ClientID:  req.ClientID,
		NewIndex:  toIndex,
		CardCount: len(reordered),
	})
	return nil
}

// SweepProgress applies the automatic progress transitions to persisted
// records: derived progress of 100 or more moves a client to dead, 75 up to
// 100 moves it to offboarding. Only forward transitions are applied; a dead
// client is never resurrected. Returns the number of clients transitioned.
func (s *Service) SweepProgress(ctx context.Context) (int, error) {
	clients, err := s.repo.List(ctx, repository.ListParams{})
	if err != nil {
		return 0, err
	}

	now := s.now()
	transitions := 0
	for _, client := range clients {
		current := domain.Stage(client.LifecycleState)
		if current == domain.StageDead {
			continue
		}

		next, ok := domain.StageFromProgress(client.ToDomain().ProgressPercentAt(now))
		if !ok || next == current {
			continue
		}

		updated, err := s.repo.UpdateStage(ctx, client.ID, string(next), false)
		if err != nil {
			if apperr.GetKind(err) == apperr.KindNotFound {
				continue
			}
			return transitions, err
		}
		transitions++

		s.bus.Publish(ctx, events.ClientStageChanged{
			BaseEvent:        events.NewBaseEvent(),
			ClientID:         updated.ID,
			DisplayName:      updated.ToDomain().DisplayName(),
			FromState:        string(current),
			ToState:          string(next),
			TriggeredBySweep: true,
		})
	}

	if transitions > 0 {
		s.log.Info("progress sweep applied transitions", "count", transitions)
	}
	return transitions, nil
}

// placeInColumn splices a client to the given index in its stage column and
// persists the column's sort orders.
func (s *Service) placeInColumn(ctx context.Context, id uuid.UUID, stage domain.Stage, targetIndex int) error {
	return s.ReorderColumn(ctx, stage, transport.ReorderColumnRequest{ClientID: id, TargetIndex: targetIndex})
}

// loadColumn builds the ordered merged-entity column for one stage.
func (s *Service) loadColumn(ctx context.Context, stage domain.Stage) ([]domain.Merged, error) {
	clients, err := s.repo.List(ctx, repository.ListParams{})
	if err != nil {
		return nil, err
	}

	merged := domain.Consolidate(toDomainRecords(clients), s.now())
	var column []domain.Merged
	for _, m := range merged {
		if m.Stage == stage {
			column = append(column, m)
		}
	}
	return domain.OrderColumn(column, stage), nil
}

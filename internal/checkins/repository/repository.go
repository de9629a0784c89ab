package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coachdesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Check-in status values.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// CheckIn is the persistence model for one calendar check-in.
type CheckIn struct {
	ID              uuid.UUID
	ClientID        uuid.UUID
	ScheduledAt     time.Time
	DurationMinutes int
	Status          string
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateParams contains parameters for scheduling a check-in.
type CreateParams struct {
	ClientID        uuid.UUID
	ScheduledAt     time.Time
	DurationMinutes int
	Notes           *string
}

// ListParams filters check-ins to a calendar range and optionally one client.
type ListParams struct {
	From     *time.Time
	To       *time.Time
	ClientID *uuid.UUID
}

// Repository provides check-in persistence operations.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (CheckIn, error)
	List(ctx context.Context, params ListParams) ([]CheckIn, error)
	Create(ctx context.Context, params CreateParams) (CheckIn, error)
	Save(ctx context.Context, checkIn CheckIn) (CheckIn, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ Repository = (*PostgresRepository)(nil)

const checkInColumns = `id, client_id, scheduled_at, duration_minutes, status, notes, created_at, updated_at`

func scanCheckIn(row pgx.Row) (CheckIn, error) {
	var ci CheckIn
	err := row.Scan(
		&ci.ID, &ci.ClientID, &ci.ScheduledAt, &ci.DurationMinutes,
		&ci.Status, &ci.Notes, &ci.CreatedAt, &ci.UpdatedAt,
	)
	return ci, err
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (CheckIn, error) {
	query := fmt.Sprintf(`SELECT %s FROM check_ins WHERE id = $1`, checkInColumns)

	ci, err := scanCheckIn(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CheckIn{}, apperr.NotFound("check-in not found")
		}
		return CheckIn{}, fmt.Errorf("get check-in by id: %w", err)
	}
	return ci, nil
}

func (r *PostgresRepository) List(ctx context.Context, params ListParams) ([]CheckIn, error) {
	query := fmt.Sprintf(`SELECT %s FROM check_ins`, checkInColumns)

	var conditions []string
	var args []any
	if params.From != nil {
		args = append(args, *params.From)
		conditions = append(conditions, fmt.Sprintf("scheduled_at >= $%d", len(args)))
	}
	if params.To != nil {
		args = append(args, *params.To)
		conditions = append(conditions, fmt.Sprintf("scheduled_at < $%d", len(args)))
	}
	if params.ClientID != nil {
		args = append(args, *params.ClientID)
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)))
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY scheduled_at, id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	defer rows.Close()

	var checkIns []CheckIn
	for rows.Next() {
		ci, err := scanCheckIn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		checkIns = append(checkIns, ci)
	}
	return checkIns, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, params CreateParams) (CheckIn, error) {
	query := fmt.Sprintf(`INSERT INTO check_ins (client_id, scheduled_at, duration_minutes, status, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, checkInColumns)

	ci, err := scanCheckIn(r.db.QueryRow(ctx, query,
		params.ClientID, params.ScheduledAt, params.DurationMinutes, StatusScheduled, params.Notes,
	))
	if err != nil {
		return CheckIn{}, fmt.Errorf("create check-in: %w", err)
	}
	return ci, nil
}

func (r *PostgresRepository) Save(ctx context.Context, checkIn CheckIn) (CheckIn, error) {
	query := fmt.Sprintf(`UPDATE check_ins SET
			scheduled_at = $2, duration_minutes = $3, status = $4, notes = $5, updated_at = now()
		WHERE id = $1
		RETURNING %s`, checkInColumns)

	ci, err := scanCheckIn(r.db.QueryRow(ctx, query,
		checkIn.ID, checkIn.ScheduledAt, checkIn.DurationMinutes, checkIn.Status, checkIn.Notes,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CheckIn{}, apperr.NotFound("check-in not found")
		}
		return CheckIn{}, fmt.Errorf("save check-in: %w", err)
	}
	return ci, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM check_ins WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete check-in: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("check-in not found")
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coachdesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ Repository = (*PostgresRepository)(nil)

const clientColumns = `id, first_name, last_name, email, phone, lifecycle_state,
	estimated_mrr_cents, lifetime_revenue_cents,
	program_start_date, program_end_date, program_duration_days,
	stripe_customer_id, sort_orders, created_at, updated_at`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.LifecycleState,
		&c.EstimatedMRRCents, &c.LifetimeRevenueCents,
		&c.ProgramStartDate, &c.ProgramEndDate, &c.ProgramDurationDays,
		&c.StripeCustomerID, &c.SortOrders, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE id = $1`, clientColumns)

	c, err := scanClient(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound("client not found")
		}
		return Client{}, fmt.Errorf("get client by id: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE stripe_customer_id = $1 ORDER BY created_at, id LIMIT 1`, clientColumns)

	c, err := scanClient(r.db.QueryRow(ctx, query, stripeCustomerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound("client not found")
		}
		return Client{}, fmt.Errorf("get client by stripe customer id: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetByNormalizedEmail(ctx context.Context, normalizedEmail string) (Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients
		WHERE lower(regexp_replace(coalesce(email, ''), '\s', '', 'g')) = $1 AND coalesce(email, '') <> ''
		ORDER BY created_at, id LIMIT 1`, clientColumns)

	c, err := scanClient(r.db.QueryRow(ctx, query, normalizedEmail))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound("client not found")
		}
		return Client{}, fmt.Errorf("get client by email: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) List(ctx context.Context, params ListParams) ([]Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients`, clientColumns)

	var conditions []string
	var args []any
	if params.LifecycleState != nil {
		args = append(args, *params.LifecycleState)
		conditions = append(conditions, fmt.Sprintf("lifecycle_state = $%d", len(args)))
	}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR coalesce(email, '') ILIKE $%d)", n, n, n))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, params CreateParams) (Client, error) {
	query := fmt.Sprintf(`INSERT INTO clients (
			first_name, last_name, email, phone, lifecycle_state,
			program_start_date, program_end_date, program_duration_days, stripe_customer_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s`, clientColumns)

	c, err := scanClient(r.db.QueryRow(ctx, query,
		params.FirstName, params.LastName, params.Email, params.Phone, params.LifecycleState,
		params.ProgramStartDate, params.ProgramEndDate, params.ProgramDurationDays, params.StripeCustomerID,
	))
	if err != nil {
		return Client{}, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Save(ctx context.Context, client Client) (Client, error) {
	query := fmt.Sprintf(`UPDATE clients SET
			first_name = $2, last_name = $3, email = $4, phone = $5, lifecycle_state = $6,
			estimated_mrr_cents = $7, lifetime_revenue_cents = $8,
			program_start_date = $9, program_end_date = $10, program_duration_days = $11,
			stripe_customer_id = $12, sort_orders = $13, updated_at = now()
		WHERE id = $1
		RETURNING %s`, clientColumns)

	c, err := scanClient(r.db.QueryRow(ctx, query,
		client.ID,
		client.FirstName, client.LastName, client.Email, client.Phone, client.LifecycleState,
		client.EstimatedMRRCents, client.LifetimeRevenueCents,
		client.ProgramStartDate, client.ProgramEndDate, client.ProgramDurationDays,
		client.StripeCustomerID, client.SortOrders,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound("client not found")
		}
		return Client{}, fmt.Errorf("save client: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("delete clients: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("client not found")
	}
	return nil
}

// UpdateStage moves a client to a new lifecycle state. When clearProgram is
// set the program timeline fields are nulled so no derived progress survives
// the transition.
func (r *PostgresRepository) UpdateStage(ctx context.Context, id uuid.UUID, stage string, clearProgram bool) (Client, error) {
	query := fmt.Sprintf(`UPDATE clients SET
			lifecycle_state = $2,
			program_start_date = CASE WHEN $3 THEN NULL ELSE program_start_date END,
			program_end_date = CASE WHEN $3 THEN NULL ELSE program_end_date END,
			program_duration_days = CASE WHEN $3 THEN NULL ELSE program_duration_days END,
			updated_at = now()
		WHERE id = $1
		RETURNING %s`, clientColumns)

	c, err := scanClient(r.db.QueryRow(ctx, query, id, stage, clearProgram))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound("client not found")
		}
		return Client{}, fmt.Errorf("update client stage: %w", err)
	}
	return c, nil
}

// UpdateSortOrders writes the new position of every card in one stage column
// inside a single transaction. Either all positions land or none do.
func (r *PostgresRepository) UpdateSortOrders(ctx context.Context, stage string, updates []SortOrderUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin sort order update: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, u := range updates {
		batch.Queue(
			`UPDATE clients
			 SET sort_orders = jsonb_set(coalesce(sort_orders, '{}'::jsonb), ARRAY[$2::text], to_jsonb($3::int)),
			     updated_at = now()
			 WHERE id = $1`,
			u.ClientID, stage, u.Position,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range updates {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("update sort order: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close sort order batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit sort order update: %w", err)
	}
	return nil
}

// UpdateRevenue writes recomputed monetary fields for a set of clients in one
// transaction. Revenue figures never decrease; GREATEST keeps a stale
// recomputation from clawing back money already recorded.
func (r *PostgresRepository) UpdateRevenue(ctx context.Context, updates []RevenueUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin revenue update: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, u := range updates {
		batch.Queue(
			`UPDATE clients
			 SET lifetime_revenue_cents = GREATEST(lifetime_revenue_cents, $2),
			     estimated_mrr_cents = GREATEST(estimated_mrr_cents, $3),
			     updated_at = now()
			 WHERE id = $1`,
			u.ClientID, u.LifetimeRevenueCents, u.EstimatedMRRCents,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range updates {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("update revenue: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close revenue batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit revenue update: %w", err)
	}
	return nil
}

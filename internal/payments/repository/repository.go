package repository

import (
	"context"
	"fmt"

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

const paymentColumns = `id, stripe_payment_id, stripe_customer_id, client_id,
	amount_cents, currency, status, subscription_id, paid_at, created_at`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID, &p.StripePaymentID, &p.StripeCustomerID, &p.ClientID,
		&p.AmountCents, &p.Currency, &p.Status, &p.SubscriptionID, &p.PaidAt, &p.CreatedAt,
	)
	return p, err
}

func (r *PostgresRepository) Upsert(ctx context.Context, params UpsertParams) (Payment, bool, error) {
	// Manual entries carry no processor id and are plain inserts.
	if params.StripePaymentID == nil {
		query := fmt.Sprintf(`INSERT INTO payments (
				stripe_payment_id, stripe_customer_id, client_id,
				amount_cents, currency, status, subscription_id, paid_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING %s`, paymentColumns)
		p, err := scanPayment(r.db.QueryRow(ctx, query,
			params.StripePaymentID, params.StripeCustomerID, params.ClientID,
			params.AmountCents, params.Currency, params.Status, params.SubscriptionID, params.PaidAt,
		))
		if err != nil {
			return Payment{}, false, fmt.Errorf("insert payment: %w", err)
		}
		return p, true, nil
	}

	query := fmt.Sprintf(`INSERT INTO payments (
			stripe_payment_id, stripe_customer_id, client_id,
			amount_cents, currency, status, subscription_id, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (stripe_payment_id) DO UPDATE SET
			status = EXCLUDED.status,
			client_id = COALESCE(EXCLUDED.client_id, payments.client_id),
			stripe_customer_id = COALESCE(EXCLUDED.stripe_customer_id, payments.stripe_customer_id)
		RETURNING %s, (xmax = 0) AS inserted`, paymentColumns)

	var p Payment
	var inserted bool
	err := r.db.QueryRow(ctx, query,
		params.StripePaymentID, params.StripeCustomerID, params.ClientID,
		params.AmountCents, params.Currency, params.Status, params.SubscriptionID, params.PaidAt,
	).Scan(
		&p.ID, &p.StripePaymentID, &p.StripeCustomerID, &p.ClientID,
		&p.AmountCents, &p.Currency, &p.Status, &p.SubscriptionID, &p.PaidAt, &p.CreatedAt,
		&inserted,
	)
	if err != nil {
		return Payment{}, false, fmt.Errorf("upsert payment: %w", err)
	}
	return p, inserted, nil
}

func (r *PostgresRepository) ListForIdentity(ctx context.Context, clientIDs []uuid.UUID, stripeCustomerIDs []string) ([]Payment, error) {
	if len(clientIDs) == 0 && len(stripeCustomerIDs) == 0 {
		return nil, nil
	}

	// DISTINCT ON keeps one row per processor id so a payment reachable both
	// through its client link and its customer id is never counted twice.
	query := fmt.Sprintf(`SELECT DISTINCT ON (coalesce(stripe_payment_id, id::text)) %s
		FROM payments
		WHERE client_id = ANY($1) OR stripe_customer_id = ANY($2)
		ORDER BY coalesce(stripe_payment_id, id::text), paid_at DESC`, paymentColumns)

	rows, err := r.db.Query(ctx, query, clientIDs, stripeCustomerIDs)
	if err != nil {
		return nil, fmt.Errorf("list payments for identity: %w", err)
	}
	defer rows.Close()

	payments, err := collectPayments(rows)
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments ORDER BY paid_at DESC, id`, paymentColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	return collectPayments(rows)
}

func (r *PostgresRepository) SucceededTotalsByClient(ctx context.Context) ([]ClientRevenue, error) {
	rows, err := r.db.Query(ctx, `
		SELECT client_id, SUM(amount_cents)
		FROM payments
		WHERE status = $1 AND client_id IS NOT NULL
		GROUP BY client_id`, StatusSucceeded)
	if err != nil {
		return nil, fmt.Errorf("sum payments by client: %w", err)
	}
	defer rows.Close()

	var totals []ClientRevenue
	for rows.Next() {
		var t ClientRevenue
		if err := rows.Scan(&t.ClientID, &t.AmountCents); err != nil {
			return nil, fmt.Errorf("scan client revenue: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *PostgresRepository) MonthlyRevenue(ctx context.Context, months int) ([]MonthRevenue, error) {
	rows, err := r.db.Query(ctx, `
		SELECT date_trunc('month', paid_at) AS month, SUM(amount_cents)
		FROM payments
		WHERE status = $1 AND paid_at >= date_trunc('month', now()) - make_interval(months => $2 - 1)
		GROUP BY month
		ORDER BY month`, StatusSucceeded, months)
	if err != nil {
		return nil, fmt.Errorf("monthly revenue: %w", err)
	}
	defer rows.Close()

	var buckets []MonthRevenue
	for rows.Next() {
		var b MonthRevenue
		if err := rows.Scan(&b.Month, &b.AmountCents); err != nil {
			return nil, fmt.Errorf("scan month revenue: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func collectPayments(rows pgx.Rows) ([]Payment, error) {
	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

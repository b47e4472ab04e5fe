package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/crewkit/pkg/ledger"
	"github.com/dmitrymomot/crewkit/pkg/pg"
	"github.com/dmitrymomot/crewkit/pkg/subscription"
	"github.com/dmitrymomot/crewkit/pkg/tariff"
)

// PGStore is the PostgreSQL-backed SubscriptionStore. It also persists the
// payment ledger as whole snapshots, matching the ledger's load/save model.
// Schema lives in svc/billing/migrations and is applied with pg.Migrate.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a store over an established connection pool.
// Panics if pool is nil to fail fast during initialization.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	if pool == nil {
		panic("billing: pgx pool is required")
	}
	return &PGStore{pool: pool}
}

const subscriptionColumns = `id, user_id, status, plan_tier, plan_interval,
	period_start, period_end, trial_ends_at, blocked_at, blocked_reason,
	previous_status, created_at, updated_at`

func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (subscription.Subscription, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM billing_subscriptions WHERE id = $1`, id)
	return scanSubscription(row)
}

func (s *PGStore) GetByUser(ctx context.Context, userID uuid.UUID) (subscription.Subscription, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM billing_subscriptions WHERE user_id = $1`, userID)
	return scanSubscription(row)
}

func (s *PGStore) Save(ctx context.Context, sub subscription.Subscription) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO billing_subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			plan_tier = EXCLUDED.plan_tier,
			plan_interval = EXCLUDED.plan_interval,
			period_start = EXCLUDED.period_start,
			period_end = EXCLUDED.period_end,
			blocked_at = EXCLUDED.blocked_at,
			blocked_reason = EXCLUDED.blocked_reason,
			previous_status = EXCLUDED.previous_status,
			updated_at = EXCLUDED.updated_at`,
		sub.ID, sub.UserID, string(sub.Status), string(sub.PlanTier), string(sub.PlanInterval),
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.TrialEndsAt, sub.BlockedAt, sub.BlockedReason,
		string(sub.PreviousStatus), sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save subscription %s: %w", sub.ID, err)
	}
	return nil
}

func (s *PGStore) List(ctx context.Context) ([]subscription.Subscription, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM billing_subscriptions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var result []subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}

// SaveLedger replaces the persisted ledger state with the given snapshot.
// Both lists are rewritten in one transaction so a crash never leaves
// invoices without their log entries.
func (s *PGStore) SaveLedger(ctx context.Context, invoices []ledger.Invoice, entries []ledger.Entry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin ledger save: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM billing_payment_logs`); err != nil {
		return fmt.Errorf("failed to clear payment logs: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM billing_invoices`); err != nil {
		return fmt.Errorf("failed to clear invoices: %w", err)
	}

	for _, inv := range invoices {
		if _, err := tx.Exec(ctx, `
			INSERT INTO billing_invoices
				(id, subscription_id, amount, plan_tier, plan_interval, status, created_at, paid_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			inv.ID, inv.SubscriptionID, inv.Amount, string(inv.PlanTier), string(inv.PlanInterval),
			string(inv.Status), inv.CreatedAt, inv.PaidAt); err != nil {
			return fmt.Errorf("failed to save invoice %d: %w", inv.ID, err)
		}
	}
	for _, e := range entries {
		if _, err := tx.Exec(ctx, `
			INSERT INTO billing_payment_logs
				(id, invoice_id, action, status, amount, ts, details)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.ID, e.InvoiceID, string(e.Action), string(e.Status), e.Amount, e.Timestamp, e.Details); err != nil {
			return fmt.Errorf("failed to save payment log %d: %w", e.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// LoadLedger reads the whole persisted ledger state, ready to be handed to
// ledger.Service.Restore which reseeds the id generators.
func (s *PGStore) LoadLedger(ctx context.Context) ([]ledger.Invoice, []ledger.Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, subscription_id, amount, plan_tier, plan_interval, status, created_at, paid_at
		FROM billing_invoices ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	defer rows.Close()

	var invoices []ledger.Invoice
	for rows.Next() {
		var (
			inv            ledger.Invoice
			tier, interval string
			status         string
			paidAt         *time.Time
		)
		if err := rows.Scan(&inv.ID, &inv.SubscriptionID, &inv.Amount, &tier, &interval,
			&status, &inv.CreatedAt, &paidAt); err != nil {
			return nil, nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		inv.PlanTier = tariff.Tier(tier)
		inv.PlanInterval = tariff.Interval(interval)
		inv.Status = ledger.InvoiceStatus(status)
		inv.PaidAt = paidAt
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	logRows, err := s.pool.Query(ctx, `
		SELECT id, invoice_id, action, status, amount, ts, details
		FROM billing_payment_logs ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load payment logs: %w", err)
	}
	defer logRows.Close()

	var entries []ledger.Entry
	for logRows.Next() {
		var (
			e              ledger.Entry
			action, status string
		)
		if err := logRows.Scan(&e.ID, &e.InvoiceID, &action, &status, &e.Amount, &e.Timestamp, &e.Details); err != nil {
			return nil, nil, fmt.Errorf("failed to scan payment log: %w", err)
		}
		e.Action = ledger.Action(action)
		e.Status = ledger.InvoiceStatus(status)
		entries = append(entries, e)
	}
	return invoices, entries, logRows.Err()
}

func scanSubscription(row pgx.Row) (subscription.Subscription, error) {
	var (
		sub                          subscription.Subscription
		status, tier, interval, prev string
		blockedAt                    *time.Time
	)
	err := row.Scan(&sub.ID, &sub.UserID, &status, &tier, &interval,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.TrialEndsAt,
		&blockedAt, &sub.BlockedReason, &prev, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return subscription.Subscription{}, ErrSubscriptionNotFound
		}
		return subscription.Subscription{}, fmt.Errorf("failed to scan subscription: %w", err)
	}
	sub.Status = subscription.Status(status)
	sub.PlanTier = tariff.Tier(tier)
	sub.PlanInterval = tariff.Interval(interval)
	sub.PreviousStatus = subscription.Status(prev)
	sub.BlockedAt = blockedAt
	return sub, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/famloop/backend/pkg/models"
)

const subscriptionColumns = `id, user_id, stripe_customer_id, stripe_subscription_id,
	price_id, plan, status, current_period_end, cancel_at_period_end, created_at, updated_at`

// Get fetches the subscription for a user. Returns nil without error when no
// row exists; at most one row per user is enforced by the schema.
func (p *Postgres) Get(ctx context.Context, userID int) (*models.Subscription, error) {
	const op = "store.Subscriptions.Get"
	defer p.observe("select", time.Now())

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1`
	row := p.db.QueryRowContext(ctx, query, userID)

	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// Upsert inserts or updates the single subscription row for a user. The plan
// column is recomputed from the incoming price ID, never taken from the
// caller, and a previously stored customer ID survives an empty incoming
// value. Safe to call repeatedly with identical arguments.
func (p *Postgres) Upsert(ctx context.Context, userID int, params models.SubscriptionUpsert) (*models.Subscription, error) {
	const op = "store.Subscriptions.Upsert"
	defer p.observe("upsert", time.Now())

	plan := p.catalog.PriceToPlan(params.PriceID)

	query := `INSERT INTO subscriptions (user_id, stripe_customer_id, stripe_subscription_id,
			      price_id, plan, status, current_period_end, cancel_at_period_end)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  ON CONFLICT (user_id) DO UPDATE SET
			      stripe_customer_id = COALESCE(NULLIF(EXCLUDED.stripe_customer_id, ''), subscriptions.stripe_customer_id),
			      stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			      price_id = EXCLUDED.price_id,
			      plan = EXCLUDED.plan,
			      status = EXCLUDED.status,
			      current_period_end = EXCLUDED.current_period_end,
			      cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			      updated_at = NOW()
			  RETURNING ` + subscriptionColumns

	row := p.db.QueryRowContext(ctx, query,
		userID, params.StripeCustomerID, params.StripeSubscriptionID,
		params.PriceID, plan, params.Status, params.CurrentPeriodEnd, params.CancelAtPeriodEnd)

	sub, err := scanSubscription(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

func scanSubscription(row *sql.Row) (*models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.StripeCustomerID, &sub.StripeSubscriptionID,
		&sub.PriceID, &sub.Plan, &sub.Status, &sub.CurrentPeriodEnd,
		&sub.CancelAtPeriodEnd, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

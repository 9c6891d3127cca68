package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/emma-hr/emma-api/internal/models"
)

// SubscriptionRepository handles newsletter subscriber persistence.
type SubscriptionRepository struct {
	db *sqlx.DB
}

// NewSubscriptionRepository constructs the repository.
func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `id, email, active, subscribed_at, unsubscribed_at`

// List returns subscribers; activeOnly limits to current subscribers.
func (r *SubscriptionRepository) List(ctx context.Context, activeOnly bool) ([]models.Subscription, error) {
	query := fmt.Sprintf(`SELECT %s FROM subscriptions`, subscriptionColumns)
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY subscribed_at DESC`
	var subs []models.Subscription
	if err := r.db.SelectContext(ctx, &subs, query); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

// FindByEmail returns a subscriber by email, or nil when absent.
func (r *SubscriptionRepository) FindByEmail(ctx context.Context, email string) (*models.Subscription, error) {
	query := fmt.Sprintf(`SELECT %s FROM subscriptions WHERE email = $1 LIMIT 1`, subscriptionColumns)
	var sub models.Subscription
	if err := r.db.GetContext(ctx, &sub, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find subscription: %w", err)
	}
	return &sub, nil
}

// Create inserts a subscriber row.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	if sub.SubscribedAt.IsZero() {
		sub.SubscribedAt = time.Now().UTC()
	}
	sub.Active = true
	const query = `INSERT INTO subscriptions (email, active, subscribed_at)
	VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, sub.Email, sub.Active, sub.SubscribedAt).Scan(&sub.ID); err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// SetActive toggles the active flag and stamps unsubscribed_at when turning off.
func (r *SubscriptionRepository) SetActive(ctx context.Context, email string, active bool) error {
	var query string
	if active {
		query = `UPDATE subscriptions SET active = TRUE, unsubscribed_at = NULL WHERE email = $1`
	} else {
		query = `UPDATE subscriptions SET active = FALSE, unsubscribed_at = NOW() WHERE email = $1`
	}
	res, err := r.db.ExecContext(ctx, query, email)
	if err != nil {
		return fmt.Errorf("set subscription active: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check subscription update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

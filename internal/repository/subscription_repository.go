package repository

import (
	"context"
	"database/sql"
	"errors"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/sharding"
)

type SubscriptionRepository struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
}

func NewSubscriptionRepository(dbShards []*sql.DB, router *sharding.ShardRouter) *SubscriptionRepository {
	return &SubscriptionRepository{dbShards, router}
}

const subscriptionColumns = `id, user_id, plan, status, external_customer_id, external_subscription_id,
	current_period_start, current_period_end, created_at, updated_at`

func scanSubscription(row *sql.Row) (*entity.Subscription, error) {
	sub := &entity.Subscription{}
	err := row.Scan(&sub.ID, &sub.UserID, &sub.Plan, &sub.Status, &sub.ExternalCustomerID, &sub.ExternalSubID,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *entity.Subscription) error {
	db := r.dbShards[r.router.GetShard(sub.UserID)]

	query := `
		INSERT INTO subscriptions (user_id, plan, status, external_customer_id, external_subscription_id,
			current_period_start, current_period_end)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := db.ExecContext(ctx, query, sub.UserID, sub.Plan, sub.Status, sub.ExternalCustomerID,
		sub.ExternalSubID, sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sub.ID = id
	return nil
}

func (r *SubscriptionRepository) GetActiveByUser(ctx context.Context, userID string) (*entity.Subscription, error) {
	db := r.dbShards[r.router.GetShard(userID)]

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE user_id = ? AND status = ? ORDER BY id DESC LIMIT 1`
	return scanSubscription(db.QueryRowContext(ctx, query, userID, entity.SubscriptionStatusActive))
}

// GetByExternalID locates a subscription by the billing provider's id.
// Provider events carry no user id, so every shard is probed.
func (r *SubscriptionRepository) GetByExternalID(ctx context.Context, externalID string) (*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE external_subscription_id = ? LIMIT 1`

	for _, db := range r.dbShards {
		sub, err := scanSubscription(db.QueryRowContext(ctx, query, externalID))
		if err == nil {
			return sub, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	return nil, sql.ErrNoRows
}

// Update overwrites the mutable fields: status and the period boundaries.
func (r *SubscriptionRepository) Update(ctx context.Context, sub *entity.Subscription) error {
	db := r.dbShards[r.router.GetShard(sub.UserID)]

	query := `UPDATE subscriptions SET status = ?, current_period_start = ?, current_period_end = ?
		WHERE id = ?`
	_, err := db.ExecContext(ctx, query, sub.Status, sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.ID)
	return err
}

func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, sub *entity.Subscription, status string) error {
	db := r.dbShards[r.router.GetShard(sub.UserID)]

	query := `UPDATE subscriptions SET status = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, status, sub.ID)
	return err
}

package repository

import (
	"context"
	"database/sql"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/sharding"
)

type CartRepository struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
}

func NewCartRepository(dbShards []*sql.DB, router *sharding.ShardRouter) *CartRepository {
	return &CartRepository{dbShards, router}
}

func (r *CartRepository) ListByUser(ctx context.Context, userID string) ([]entity.CartItem, error) {
	db := r.dbShards[r.router.GetShard(userID)]

	rows, err := db.QueryContext(ctx, `SELECT id, user_id, name, quantity FROM cart_items WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []entity.CartItem
	for rows.Next() {
		item := entity.CartItem{}
		if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeleteByUser clears the whole cart. Deleting an already-empty cart is a
// no-op, which keeps webhook replays side-effect free.
func (r *CartRepository) DeleteByUser(ctx context.Context, userID string) error {
	db := r.dbShards[r.router.GetShard(userID)]

	_, err := db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID)
	return err
}

func (r *CartRepository) DeleteItem(ctx context.Context, userID, name string) error {
	db := r.dbShards[r.router.GetShard(userID)]

	_, err := db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ? AND name = ?`, userID, name)
	return err
}

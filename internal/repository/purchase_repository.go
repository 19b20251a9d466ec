package repository

import (
	"context"
	"database/sql"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/sharding"
)

type PurchaseRepository struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
}

func NewPurchaseRepository(dbShards []*sql.DB, router *sharding.ShardRouter) *PurchaseRepository {
	return &PurchaseRepository{dbShards, router}
}

// CreateWithCartMerge inserts the purchase with its line-item snapshot and
// merges the submitted items into the user's persistent cart, all in one
// transaction so the cart is never left partially updated.
func (r *PurchaseRepository) CreateWithCartMerge(ctx context.Context, purchase *entity.Purchase) error {
	db := r.dbShards[r.router.GetShard(purchase.UserID)]

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	cartQuery := `
		INSERT INTO cart_items (user_id, name, quantity)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`
	for _, item := range purchase.Items {
		_, err := tx.ExecContext(ctx, cartQuery, purchase.UserID, item.Name, item.Quantity)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	purchaseQuery := `
		INSERT INTO purchases (id, user_id, total_price, status, customer_name, customer_email, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, purchaseQuery, purchase.ID, purchase.UserID, purchase.TotalPrice,
		purchase.Status, purchase.CustomerName, purchase.CustomerEmail, purchase.CreatedAt)
	if err != nil {
		tx.Rollback()
		return err
	}

	// Insert line items with batch
	itemQuery := `
		INSERT INTO purchase_items (purchase_id, name, description, price, quantity)
		VALUES `

	var values []interface{}
	for _, item := range purchase.Items {
		itemQuery += "(?, ?, ?, ?, ?),"
		values = append(values, purchase.ID, item.Name, item.Description, item.Price, item.Quantity)
	}

	// Remove the trailing comma
	itemQuery = itemQuery[:len(itemQuery)-1]

	_, err = tx.ExecContext(ctx, itemQuery, values...)
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *PurchaseRepository) GetByID(ctx context.Context, userID, id string) (*entity.Purchase, error) {
	purchaseQuery := `
		SELECT id, user_id, total_price, status,
		       COALESCE(customer_name, ''), COALESCE(customer_email, ''), created_at
		FROM purchases WHERE id = ?`
	itemQuery := `SELECT name, COALESCE(description, ''), price, quantity FROM purchase_items WHERE purchase_id = ?`

	db := r.dbShards[r.router.GetShard(userID)]

	purchase := &entity.Purchase{}
	err := db.QueryRowContext(ctx, purchaseQuery, id).Scan(&purchase.ID, &purchase.UserID,
		&purchase.TotalPrice, &purchase.Status, &purchase.CustomerName, &purchase.CustomerEmail, &purchase.CreatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, itemQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item := entity.PurchaseItem{}
		err := rows.Scan(&item.Name, &item.Description, &item.Price, &item.Quantity)
		if err != nil {
			return nil, err
		}
		purchase.Items = append(purchase.Items, item)
	}

	return purchase, rows.Err()
}

// MarkCompleted transitions a pending purchase to completed. Returns false
// when the row was already terminal, which makes webhook replays a no-op.
func (r *PurchaseRepository) MarkCompleted(ctx context.Context, userID, id string) (bool, error) {
	return r.transition(ctx, userID, id, entity.PurchaseStatusCompleted)
}

// MarkFailed transitions a pending purchase to failed.
func (r *PurchaseRepository) MarkFailed(ctx context.Context, userID, id string) (bool, error) {
	return r.transition(ctx, userID, id, entity.PurchaseStatusFailed)
}

func (r *PurchaseRepository) transition(ctx context.Context, userID, id, status string) (bool, error) {
	db := r.dbShards[r.router.GetShard(userID)]

	query := `UPDATE purchases SET status = ? WHERE id = ? AND status = ?`
	res, err := db.ExecContext(ctx, query, status, id, entity.PurchaseStatusPending)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

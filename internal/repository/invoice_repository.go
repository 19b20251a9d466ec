package repository

import (
	"context"
	"database/sql"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/sharding"
)

type InvoiceRepository struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
}

func NewInvoiceRepository(dbShards []*sql.DB, router *sharding.ShardRouter) *InvoiceRepository {
	return &InvoiceRepository{dbShards, router}
}

// Create issues the invoice for a purchase. First write wins: the unique key
// on purchase_id makes a replayed insert a no-op.
func (r *InvoiceRepository) Create(ctx context.Context, userID string, invoice *entity.Invoice) error {
	db := r.dbShards[r.router.GetShard(userID)]

	query := `INSERT IGNORE INTO invoices (purchase_id, number, created_at) VALUES (?, ?, ?)`
	_, err := db.ExecContext(ctx, query, invoice.PurchaseID, invoice.Number, invoice.CreatedAt)
	return err
}

func (r *InvoiceRepository) GetByPurchase(ctx context.Context, userID, purchaseID string) (*entity.Invoice, error) {
	db := r.dbShards[r.router.GetShard(userID)]

	invoice := &entity.Invoice{}
	query := `SELECT id, purchase_id, number, created_at FROM invoices WHERE purchase_id = ?`
	err := db.QueryRowContext(ctx, query, purchaseID).Scan(&invoice.ID, &invoice.PurchaseID, &invoice.Number, &invoice.CreatedAt)
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

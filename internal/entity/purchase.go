package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusFailed    = "failed"
)

type Purchase struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Status        string          `json:"status"` // "pending", "completed", "failed"
	CustomerName  string          `json:"customer_name,omitempty"`
	CustomerEmail string          `json:"customer_email,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []PurchaseItem  `json:"items"`
}

// PurchaseItem is a price/quantity snapshot taken when the purchase is
// created. Catalog changes never touch it.
type PurchaseItem struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// Subtotal is the sum of price * quantity over the line items.
func (p *Purchase) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range p.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// Terminal reports whether the purchase status can no longer change.
func (p *Purchase) Terminal() bool {
	return p.Status == PurchaseStatusCompleted || p.Status == PurchaseStatusFailed
}

/*
Mysql Tables

CREATE TABLE purchases (
	id CHAR(36) PRIMARY KEY,
	user_id CHAR(36) NOT NULL,
	total_price DECIMAL(10,2) NOT NULL,
	status VARCHAR(20) NOT NULL,
	customer_name VARCHAR(255),
	customer_email VARCHAR(255),
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE purchase_items (
	id INT AUTO_INCREMENT PRIMARY KEY,
	purchase_id CHAR(36) NOT NULL REFERENCES purchases(id),
	name VARCHAR(255) NOT NULL,
	description TEXT,
	price DECIMAL(10,2) NOT NULL,
	quantity INT NOT NULL
);

*/

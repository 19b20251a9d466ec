package entity

import "time"

// Invoice is issued once per purchase when the payment provider confirms
// completion. Read-only after creation.
type Invoice struct {
	ID         int64     `json:"id"`
	PurchaseID string    `json:"purchase_id"`
	Number     string    `json:"number"`
	CreatedAt  time.Time `json:"created_at"`
}

package entity

import "time"

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

type Subscription struct {
	ID                 int64     `json:"id"`
	UserID             string    `json:"user_id"`
	Plan               string    `json:"plan"`
	Status             string    `json:"status"` // "active", "past_due", "canceled"
	ExternalCustomerID string    `json:"external_customer_id"`
	ExternalSubID      string    `json:"external_subscription_id"`
	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Active reports whether the subscription currently grants access.
func (s *Subscription) Active() bool {
	return s.Status == SubscriptionStatusActive
}

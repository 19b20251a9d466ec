package gateway

import "time"

type EventType int

// Closed set of provider notifications the service acts on. Anything the
// provider sends outside this set maps to EventUnknown and is acknowledged
// without action, so new provider event types fail closed.
const (
	EventUnknown EventType = iota
	EventCheckoutCompleted
	EventCheckoutExpired
	EventSubscriptionUpdated
	EventSubscriptionDeleted
	EventInvoicePaymentSucceeded
	EventInvoicePaymentFailed
)

// Event is a verified, decoded webhook delivery. Exactly one of the payload
// fields is set, matching Type.
type Event struct {
	ID   string
	Type EventType

	Session      *SessionEvent
	Subscription *SubscriptionEvent
	Invoice      *InvoiceEvent
}

// SessionEvent reports a hosted checkout session that completed or expired.
// One-time purchases carry the purchase id in Metadata; subscription
// checkouts carry a plan instead plus the provider's subscription id.
type SessionEvent struct {
	ID             string
	CustomerID     string
	SubscriptionID string
	CustomerName   string
	CustomerEmail  string
	Metadata       map[string]string
}

type SubscriptionEvent struct {
	ID                 string // provider's subscription id
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
}

type InvoiceEvent struct {
	ID             string
	SubscriptionID string
}

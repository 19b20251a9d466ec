package service

import (
	"context"

	"github.com/segmentio/kafka-go"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/gateway"
)

// Repository and gateway dependencies are injected as interfaces so tests can
// substitute in-memory fakes.

type PurchaseRepository interface {
	CreateWithCartMerge(ctx context.Context, purchase *entity.Purchase) error
	GetByID(ctx context.Context, userID, id string) (*entity.Purchase, error)
	MarkCompleted(ctx context.Context, userID, id string) (bool, error)
	MarkFailed(ctx context.Context, userID, id string) (bool, error)
}

type CartRepository interface {
	ListByUser(ctx context.Context, userID string) ([]entity.CartItem, error)
	DeleteByUser(ctx context.Context, userID string) error
	DeleteItem(ctx context.Context, userID, name string) error
}

type InvoiceRepository interface {
	Create(ctx context.Context, userID string, invoice *entity.Invoice) error
	GetByPurchase(ctx context.Context, userID, purchaseID string) (*entity.Invoice, error)
}

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *entity.Subscription) error
	GetActiveByUser(ctx context.Context, userID string) (*entity.Subscription, error)
	GetByExternalID(ctx context.Context, externalID string) (*entity.Subscription, error)
	Update(ctx context.Context, sub *entity.Subscription) error
	UpdateStatus(ctx context.Context, sub *entity.Subscription, status string) error
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdateName(ctx context.Context, id, name string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, params gateway.CheckoutParams) (string, error)
	CreateSubscriptionSession(ctx context.Context, params gateway.SubscriptionParams) (string, error)
	CancelSubscription(ctx context.Context, externalID string) error
}

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// EventLedger records processed webhook event ids so replayed deliveries can
// be acknowledged without re-dispatching.
type EventLedger interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

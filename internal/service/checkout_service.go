package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/gateway"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrInvalidItem      = errors.New("item must have a positive price and a positive quantity")
	ErrPurchaseNotFound = errors.New("purchase not found")
)

// CheckoutService turns a submitted cart into a durable pending purchase and
// a hosted checkout URL.
type CheckoutService struct {
	purchases  PurchaseRepository
	paygate    PaymentGateway
	writer     MessageWriter
	appBaseURL string
}

func NewCheckoutService(purchases PurchaseRepository, paygate PaymentGateway, writer MessageWriter, appBaseURL string) *CheckoutService {
	return &CheckoutService{
		purchases:  purchases,
		paygate:    paygate,
		writer:     writer,
		appBaseURL: appBaseURL,
	}
}

// InitiateCheckout validates the submitted items, persists a pending purchase
// with its line-item snapshot (merging the items into the persistent cart in
// the same transaction) and creates a hosted checkout session. If the
// provider call fails after the commit, the purchase stays pending; there is
// no reconciliation job, the gap is accepted and logged.
func (s *CheckoutService) InitiateCheckout(ctx context.Context, user *entity.User, items []entity.PurchaseItem) (string, error) {
	if len(items) == 0 {
		return "", ErrEmptyCart
	}
	for _, item := range items {
		if item.Name == "" || item.Quantity <= 0 || !item.Price.IsPositive() {
			return "", ErrInvalidItem
		}
	}

	purchase := &entity.Purchase{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		Status:        entity.PurchaseStatusPending,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
		CreatedAt:     time.Now().UTC(),
		Items:         items,
	}
	purchase.TotalPrice = purchase.Subtotal()

	if err := s.purchases.CreateWithCartMerge(ctx, purchase); err != nil {
		logger.Error().Err(err).Msg("Error creating purchase")
		return "", err
	}

	s.publishPurchaseEvent(ctx, purchase, "created")

	lineItems := make([]gateway.LineItem, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, gateway.LineItem{
			Name:        item.Name,
			Description: item.Description,
			UnitAmount:  minorUnits(item.Price),
			Quantity:    item.Quantity,
		})
	}

	url, err := s.paygate.CreateCheckoutSession(ctx, gateway.CheckoutParams{
		LineItems:     lineItems,
		SuccessURL:    s.appBaseURL + "/payment-success?purchase=" + purchase.ID,
		CancelURL:     s.appBaseURL + "/cart",
		CustomerEmail: user.Email,
		Metadata: map[string]string{
			"purchase_id": purchase.ID,
			"user_id":     user.ID,
		},
	})
	if err != nil {
		logger.Error().Err(err).Str("purchase_id", purchase.ID).Msg("Checkout session creation failed, purchase left pending")
		return "", err
	}

	return url, nil
}

// GetPurchaseStatus returns the purchase with its line items, but only to its
// owner. A purchase owned by someone else surfaces as not found so its
// existence is not leaked.
func (s *CheckoutService) GetPurchaseStatus(ctx context.Context, requester *entity.User, id string) (*entity.Purchase, error) {
	purchase, err := s.purchases.GetByID(ctx, requester.ID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPurchaseNotFound
		}
		logger.Error().Err(err).Str("purchase_id", id).Msg("Error getting purchase")
		return nil, err
	}
	if purchase.UserID != requester.ID {
		return nil, ErrPurchaseNotFound
	}
	return purchase, nil
}

func (s *CheckoutService) publishPurchaseEvent(ctx context.Context, purchase *entity.Purchase, key string) {
	publishPurchaseEvent(ctx, s.writer, purchase, key)
}

// publishPurchaseEvent emits a lifecycle event to Kafka. Delivery is best
// effort: a broker outage must not fail a checkout that already committed.
func publishPurchaseEvent(ctx context.Context, writer MessageWriter, purchase *entity.Purchase, key string) {
	if writer == nil {
		return
	}

	purchaseJSON, err := json.Marshal(purchase)
	if err != nil {
		logger.Warn().Err(err).Str("purchase_id", purchase.ID).Msg("Error marshalling purchase event")
		return
	}

	// purchase-created-<id> or purchase-completed-<id>
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("purchase-%s-%s", key, purchase.ID)),
		Value: purchaseJSON,
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		logger.Warn().Err(err).Str("purchase_id", purchase.ID).Msg("Error publishing purchase event")
	}
}

// minorUnits converts a decimal price to integer minor currency units.
func minorUnits(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

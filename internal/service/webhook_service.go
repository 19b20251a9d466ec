package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/gateway"
)

var (
	ErrMalformedEvent       = errors.New("malformed event metadata")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// WebhookService is the single trusted entry point for provider events. The
// handler verifies signatures before anything reaches this service; dispatch
// here must stay safe under provider redelivery.
type WebhookService struct {
	purchases      PurchaseRepository
	carts          CartRepository
	invoices       InvoiceRepository
	subscriptions  SubscriptionRepository
	ledger         EventLedger
	invoiceNumbers *snowflake.Node
	writer         MessageWriter
}

func NewWebhookService(purchases PurchaseRepository, carts CartRepository, invoices InvoiceRepository,
	subscriptions SubscriptionRepository, ledger EventLedger, invoiceNumbers *snowflake.Node, writer MessageWriter) *WebhookService {
	return &WebhookService{
		purchases:      purchases,
		carts:          carts,
		invoices:       invoices,
		subscriptions:  subscriptions,
		ledger:         ledger,
		invoiceNumbers: invoiceNumbers,
		writer:         writer,
	}
}

// HandleEvent dispatches a verified event. Unhandled types return nil so the
// provider is acknowledged and does not retry them. Persistence errors
// propagate; the provider's redelivery is the only retry mechanism.
func (s *WebhookService) HandleEvent(ctx context.Context, event *gateway.Event) error {
	if event.ID != "" {
		seen, err := s.ledger.Seen(ctx, event.ID)
		if err != nil {
			// The ledger is a replay shortcut, not a correctness guard;
			// dispatch is idempotent without it.
			logger.Warn().Err(err).Str("event_id", event.ID).Msg("Event ledger lookup failed")
		} else if seen {
			return nil
		}
	}

	var err error
	switch event.Type {
	case gateway.EventCheckoutCompleted:
		err = s.handleCheckoutCompleted(ctx, event.Session)
	case gateway.EventCheckoutExpired:
		err = s.handleCheckoutExpired(ctx, event.Session)
	case gateway.EventSubscriptionUpdated:
		err = s.handleSubscriptionUpdated(ctx, event.Subscription)
	case gateway.EventSubscriptionDeleted:
		err = s.handleSubscriptionDeleted(ctx, event.Subscription)
	case gateway.EventInvoicePaymentSucceeded:
		err = s.handleInvoicePayment(ctx, event.Invoice, entity.SubscriptionStatusActive)
	case gateway.EventInvoicePaymentFailed:
		err = s.handleInvoicePayment(ctx, event.Invoice, entity.SubscriptionStatusPastDue)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	if event.ID != "" {
		if err := s.ledger.Mark(ctx, event.ID); err != nil {
			logger.Warn().Err(err).Str("event_id", event.ID).Msg("Error marking event as processed")
		}
	}
	return nil
}

// handleCheckoutCompleted finishes a one-time purchase, or records a new
// subscription when the session metadata carries a plan instead of a
// purchase id.
func (s *WebhookService) handleCheckoutCompleted(ctx context.Context, sess *gateway.SessionEvent) error {
	userID := sess.Metadata["user_id"]
	purchaseID := sess.Metadata["purchase_id"]

	if purchaseID == "" {
		if plan := sess.Metadata["plan"]; plan != "" && userID != "" {
			return s.createSubscription(ctx, sess, userID, plan)
		}
		return ErrMalformedEvent
	}
	if userID == "" {
		return ErrMalformedEvent
	}

	completed, err := s.purchases.MarkCompleted(ctx, userID, purchaseID)
	if err != nil {
		logger.Error().Err(err).Str("purchase_id", purchaseID).Msg("Error completing purchase")
		return err
	}

	purchase, err := s.purchases.GetByID(ctx, userID, purchaseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// A session only exists after its purchase committed, so an id
			// that does not resolve never will. Reject instead of making the
			// provider retry forever.
			return ErrMalformedEvent
		}
		return err
	}
	if !completed && purchase.Status != entity.PurchaseStatusCompleted {
		// Terminal in another state; nothing to fulfill.
		return nil
	}

	// Fulfillment below is idempotent (first-write-wins invoice, cart delete
	// of a possibly empty set), so a replay that got here heals any partial
	// failure of an earlier delivery instead of erroring.
	invoice := &entity.Invoice{
		PurchaseID: purchaseID,
		Number:     "INV-" + s.invoiceNumbers.Generate().String(),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.invoices.Create(ctx, userID, invoice); err != nil {
		logger.Error().Err(err).Str("purchase_id", purchaseID).Msg("Error issuing invoice")
		return err
	}

	if err := s.carts.DeleteByUser(ctx, userID); err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("Error clearing cart")
		return err
	}

	if completed {
		purchase.Status = entity.PurchaseStatusCompleted
		publishPurchaseEvent(ctx, s.writer, purchase, "completed")
	}
	return nil
}

func (s *WebhookService) handleCheckoutExpired(ctx context.Context, sess *gateway.SessionEvent) error {
	userID := sess.Metadata["user_id"]
	purchaseID := sess.Metadata["purchase_id"]
	if purchaseID == "" || userID == "" {
		// Expired subscription checkouts never created local state.
		return nil
	}

	failed, err := s.purchases.MarkFailed(ctx, userID, purchaseID)
	if err != nil {
		return err
	}
	if failed {
		if purchase, err := s.purchases.GetByID(ctx, userID, purchaseID); err == nil {
			publishPurchaseEvent(ctx, s.writer, purchase, "failed")
		}
	}
	return nil
}

func (s *WebhookService) createSubscription(ctx context.Context, sess *gateway.SessionEvent, userID, plan string) error {
	// Redelivered session events must not duplicate the row.
	existing, err := s.subscriptions.GetActiveByUser(ctx, userID)
	if err == nil && existing.ExternalSubID == sess.SubscriptionID {
		return nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	now := time.Now().UTC()
	periodEnd := now.AddDate(0, 1, 0)
	if sess.Metadata["interval"] == "year" {
		periodEnd = now.AddDate(1, 0, 0)
	}

	sub := &entity.Subscription{
		UserID:             userID,
		Plan:               plan,
		Status:             entity.SubscriptionStatusActive,
		ExternalCustomerID: sess.CustomerID,
		ExternalSubID:      sess.SubscriptionID,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   periodEnd,
	}
	if err := s.subscriptions.Create(ctx, sub); err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("Error creating subscription")
		return err
	}
	return nil
}

func (s *WebhookService) handleSubscriptionUpdated(ctx context.Context, event *gateway.SubscriptionEvent) error {
	sub, err := s.subscriptions.GetByExternalID(ctx, event.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSubscriptionNotFound
		}
		return err
	}

	sub.Status = event.Status
	sub.CurrentPeriodStart = event.CurrentPeriodStart
	sub.CurrentPeriodEnd = event.CurrentPeriodEnd
	return s.subscriptions.Update(ctx, sub)
}

func (s *WebhookService) handleSubscriptionDeleted(ctx context.Context, event *gateway.SubscriptionEvent) error {
	sub, err := s.subscriptions.GetByExternalID(ctx, event.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSubscriptionNotFound
		}
		return err
	}
	return s.subscriptions.UpdateStatus(ctx, sub, entity.SubscriptionStatusCanceled)
}

// handleInvoicePayment moves a subscription between active and past_due as
// the provider reports recurring payment outcomes.
func (s *WebhookService) handleInvoicePayment(ctx context.Context, event *gateway.InvoiceEvent, status string) error {
	if event.SubscriptionID == "" {
		return nil
	}

	sub, err := s.subscriptions.GetByExternalID(ctx, event.SubscriptionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Not a subscription this system tracks; acknowledge.
			return nil
		}
		return err
	}
	return s.subscriptions.UpdateStatus(ctx, sub, status)
}

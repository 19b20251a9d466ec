package service

import (
	"context"
	"database/sql"
	"errors"

	"marketplace-service/internal/entity"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

type InvoiceRenderer interface {
	Render(purchase *entity.Purchase, invoice *entity.Invoice) ([]byte, error)
}

type InvoiceMailer interface {
	Deliver(pdf []byte, purchase *entity.Purchase, invoice *entity.Invoice, to string) error
}

// InvoiceService resolves a purchase to its issued invoice and produces the
// PDF, inline or by mail. It never fabricates an invoice number: no invoice
// row means not found.
type InvoiceService struct {
	purchases PurchaseRepository
	invoices  InvoiceRepository
	renderer  InvoiceRenderer
	mailer    InvoiceMailer
}

func NewInvoiceService(purchases PurchaseRepository, invoices InvoiceRepository, renderer InvoiceRenderer, mailer InvoiceMailer) *InvoiceService {
	return &InvoiceService{
		purchases: purchases,
		invoices:  invoices,
		renderer:  renderer,
		mailer:    mailer,
	}
}

// Render returns the invoice PDF for a purchase owned by the requester.
func (s *InvoiceService) Render(ctx context.Context, requester *entity.User, purchaseID string) ([]byte, *entity.Invoice, error) {
	purchase, invoice, err := s.resolve(ctx, requester, purchaseID)
	if err != nil {
		return nil, nil, err
	}

	pdf, err := s.renderer.Render(purchase, invoice)
	if err != nil {
		logger.Error().Err(err).Str("purchase_id", purchaseID).Msg("Error rendering invoice")
		return nil, nil, err
	}
	return pdf, invoice, nil
}

// Email renders the invoice and sends it to the requester's address. Delivery
// failures surface to the caller; nothing persisted changes either way.
func (s *InvoiceService) Email(ctx context.Context, requester *entity.User, purchaseID string) error {
	purchase, invoice, err := s.resolve(ctx, requester, purchaseID)
	if err != nil {
		return err
	}

	pdf, err := s.renderer.Render(purchase, invoice)
	if err != nil {
		return err
	}

	to := purchase.CustomerEmail
	if to == "" {
		to = requester.Email
	}

	if err := s.mailer.Deliver(pdf, purchase, invoice, to); err != nil {
		logger.Error().Err(err).Str("purchase_id", purchaseID).Msg("Error emailing invoice")
		return err
	}
	return nil
}

func (s *InvoiceService) resolve(ctx context.Context, requester *entity.User, purchaseID string) (*entity.Purchase, *entity.Invoice, error) {
	purchase, err := s.purchases.GetByID(ctx, requester.ID, purchaseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrPurchaseNotFound
		}
		return nil, nil, err
	}
	if purchase.UserID != requester.ID {
		return nil, nil, ErrPurchaseNotFound
	}

	invoice, err := s.invoices.GetByPurchase(ctx, requester.ID, purchaseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrInvoiceNotFound
		}
		return nil, nil, err
	}
	return purchase, invoice, nil
}

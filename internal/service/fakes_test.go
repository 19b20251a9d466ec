package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/segmentio/kafka-go"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/gateway"
)

type memCartRepo struct {
	mu    sync.RWMutex
	items map[string]map[string]int // userID -> name -> quantity
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{items: make(map[string]map[string]int)}
}

func (r *memCartRepo) merge(userID string, items []entity.PurchaseItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart := r.items[userID]
	if cart == nil {
		cart = make(map[string]int)
		r.items[userID] = cart
	}
	for _, item := range items {
		cart[item.Name] += item.Quantity
	}
}

func (r *memCartRepo) ListByUser(ctx context.Context, userID string) ([]entity.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.CartItem
	for name, qty := range r.items[userID] {
		out = append(out, entity.CartItem{UserID: userID, Name: name, Quantity: qty})
	}
	return out, nil
}

func (r *memCartRepo) DeleteByUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, userID)
	return nil
}

func (r *memCartRepo) DeleteItem(ctx context.Context, userID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cart := r.items[userID]; cart != nil {
		delete(cart, name)
	}
	return nil
}

func (r *memCartRepo) size(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items[userID])
}

type memPurchaseRepo struct {
	mu         sync.RWMutex
	purchases  map[string]*entity.Purchase
	carts      *memCartRepo
	failCreate bool
}

func newMemPurchaseRepo(carts *memCartRepo) *memPurchaseRepo {
	return &memPurchaseRepo{purchases: make(map[string]*entity.Purchase), carts: carts}
}

func (r *memPurchaseRepo) CreateWithCartMerge(ctx context.Context, purchase *entity.Purchase) error {
	if r.failCreate {
		return errors.New("db down")
	}
	r.mu.Lock()
	cp := *purchase
	cp.Items = append([]entity.PurchaseItem(nil), purchase.Items...)
	r.purchases[purchase.ID] = &cp
	r.mu.Unlock()
	if r.carts != nil {
		r.carts.merge(purchase.UserID, purchase.Items)
	}
	return nil
}

func (r *memPurchaseRepo) GetByID(ctx context.Context, userID, id string) (*entity.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	purchase, ok := r.purchases[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *purchase
	return &cp, nil
}

func (r *memPurchaseRepo) MarkCompleted(ctx context.Context, userID, id string) (bool, error) {
	return r.transition(id, entity.PurchaseStatusCompleted)
}

func (r *memPurchaseRepo) MarkFailed(ctx context.Context, userID, id string) (bool, error) {
	return r.transition(id, entity.PurchaseStatusFailed)
}

func (r *memPurchaseRepo) transition(id, status string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	purchase, ok := r.purchases[id]
	if !ok || purchase.Status != entity.PurchaseStatusPending {
		return false, nil
	}
	purchase.Status = status
	return true, nil
}

func (r *memPurchaseRepo) status(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.purchases[id]; ok {
		return p.Status
	}
	return ""
}

type memInvoiceRepo struct {
	mu         sync.RWMutex
	byPurchase map[string]*entity.Invoice
}

func newMemInvoiceRepo() *memInvoiceRepo {
	return &memInvoiceRepo{byPurchase: make(map[string]*entity.Invoice)}
}

func (r *memInvoiceRepo) Create(ctx context.Context, userID string, invoice *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// First write wins, like the unique key on purchase_id.
	if _, ok := r.byPurchase[invoice.PurchaseID]; ok {
		return nil
	}
	cp := *invoice
	r.byPurchase[invoice.PurchaseID] = &cp
	return nil
}

func (r *memInvoiceRepo) GetByPurchase(ctx context.Context, userID, purchaseID string) (*entity.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	invoice, ok := r.byPurchase[purchaseID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *invoice
	return &cp, nil
}

type memSubscriptionRepo struct {
	mu     sync.RWMutex
	nextID int64
	subs   []*entity.Subscription
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{nextID: 1}
}

func (r *memSubscriptionRepo) Create(ctx context.Context, sub *entity.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sub
	cp.ID = r.nextID
	r.nextID++
	r.subs = append(r.subs, &cp)
	sub.ID = cp.ID
	return nil
}

func (r *memSubscriptionRepo) GetActiveByUser(ctx context.Context, userID string) (*entity.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.subs) - 1; i >= 0; i-- {
		if r.subs[i].UserID == userID && r.subs[i].Status == entity.SubscriptionStatusActive {
			cp := *r.subs[i]
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memSubscriptionRepo) GetByExternalID(ctx context.Context, externalID string) (*entity.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sub := range r.subs {
		if sub.ExternalSubID == externalID {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memSubscriptionRepo) Update(ctx context.Context, sub *entity.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.subs {
		if existing.ID == sub.ID {
			existing.Status = sub.Status
			existing.CurrentPeriodStart = sub.CurrentPeriodStart
			existing.CurrentPeriodEnd = sub.CurrentPeriodEnd
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *memSubscriptionRepo) UpdateStatus(ctx context.Context, sub *entity.Subscription, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.subs {
		if existing.ID == sub.ID {
			existing.Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *memSubscriptionRepo) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

type fakeGateway struct {
	mu               sync.Mutex
	checkoutURL      string
	err              error
	checkoutCalls    []gateway.CheckoutParams
	subscriptionCall *gateway.SubscriptionParams
	canceled         []string
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, params gateway.CheckoutParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checkoutCalls = append(g.checkoutCalls, params)
	if g.err != nil {
		return "", g.err
	}
	return g.checkoutURL, nil
}

func (g *fakeGateway) CreateSubscriptionSession(ctx context.Context, params gateway.SubscriptionParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subscriptionCall = &params
	if g.err != nil {
		return "", g.err
	}
	return g.checkoutURL, nil
}

func (g *fakeGateway) CancelSubscription(ctx context.Context, externalID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.canceled = append(g.canceled, externalID)
	return nil
}

type memLedger struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemLedger() *memLedger {
	return &memLedger{seen: make(map[string]bool)}
}

func (l *memLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seen[eventID], nil
}

func (l *memLedger) Mark(ctx context.Context, eventID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[eventID] = true
	return nil
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.msgs)
}

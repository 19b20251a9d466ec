package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-service/internal/entity"
)

func newCheckoutFixture() (*CheckoutService, *memPurchaseRepo, *memCartRepo, *fakeGateway) {
	carts := newMemCartRepo()
	purchases := newMemPurchaseRepo(carts)
	paygate := &fakeGateway{checkoutURL: "https://pay.example.com/session/cs_123"}
	svc := NewCheckoutService(purchases, paygate, &fakeWriter{}, "https://marketplace.example.com")
	return svc, purchases, carts, paygate
}

func buyer() *entity.User {
	return &entity.User{ID: "user-1", Email: "buyer@example.com", Name: "Ada"}
}

func TestInitiateCheckout_CreatesPendingPurchaseWithSnapshotTotal(t *testing.T) {
	svc, purchases, carts, paygate := newCheckoutFixture()

	items := []entity.PurchaseItem{
		{Name: "Resume", Price: decimal.NewFromInt(29), Quantity: 1},
	}
	url, err := svc.InitiateCheckout(context.Background(), buyer(), items)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/session/cs_123", url)

	require.Len(t, paygate.checkoutCalls, 1)
	purchaseID := paygate.checkoutCalls[0].Metadata["purchase_id"]
	require.NotEmpty(t, purchaseID)
	assert.Equal(t, "user-1", paygate.checkoutCalls[0].Metadata["user_id"])
	assert.Equal(t, int64(2900), paygate.checkoutCalls[0].LineItems[0].UnitAmount)

	purchase, err := purchases.GetByID(context.Background(), "user-1", purchaseID)
	require.NoError(t, err)
	assert.Equal(t, entity.PurchaseStatusPending, purchase.Status)
	assert.True(t, purchase.TotalPrice.Equal(decimal.RequireFromString("29")),
		"total %s should be 29.00", purchase.TotalPrice)

	// The submitted items were merged into the persistent cart.
	assert.Equal(t, 1, carts.size("user-1"))
}

func TestInitiateCheckout_SnapshotSurvivesCatalogPriceChange(t *testing.T) {
	svc, purchases, _, paygate := newCheckoutFixture()

	items := []entity.PurchaseItem{
		{Name: "Navbar", Price: decimal.NewFromFloat(12.50), Quantity: 2},
		{Name: "Footer", Price: decimal.NewFromInt(5), Quantity: 1},
	}
	_, err := svc.InitiateCheckout(context.Background(), buyer(), items)
	require.NoError(t, err)

	purchaseID := paygate.checkoutCalls[0].Metadata["purchase_id"]
	purchase, err := purchases.GetByID(context.Background(), "user-1", purchaseID)
	require.NoError(t, err)

	// Mutating the caller's slice afterwards must not affect the snapshot.
	items[0].Price = decimal.NewFromInt(999)

	assert.True(t, purchase.TotalPrice.Equal(decimal.NewFromInt(30)))
	assert.True(t, purchase.Subtotal().Equal(purchase.TotalPrice))
}

func TestInitiateCheckout_RejectsEmptyAndInvalidCarts(t *testing.T) {
	svc, purchases, carts, _ := newCheckoutFixture()

	_, err := svc.InitiateCheckout(context.Background(), buyer(), nil)
	assert.ErrorIs(t, err, ErrEmptyCart)

	bad := []entity.PurchaseItem{{Name: "Free", Price: decimal.Zero, Quantity: 1}}
	_, err = svc.InitiateCheckout(context.Background(), buyer(), bad)
	assert.ErrorIs(t, err, ErrInvalidItem)

	negativeQty := []entity.PurchaseItem{{Name: "Card", Price: decimal.NewFromInt(9), Quantity: 0}}
	_, err = svc.InitiateCheckout(context.Background(), buyer(), negativeQty)
	assert.ErrorIs(t, err, ErrInvalidItem)

	// Rejected before any persistence.
	assert.Empty(t, purchases.purchases)
	assert.Equal(t, 0, carts.size("user-1"))
}

func TestInitiateCheckout_GatewayFailureLeavesPurchasePending(t *testing.T) {
	svc, purchases, _, paygate := newCheckoutFixture()
	paygate.err = errors.New("provider unreachable")

	items := []entity.PurchaseItem{{Name: "Resume", Price: decimal.NewFromInt(29), Quantity: 1}}
	_, err := svc.InitiateCheckout(context.Background(), buyer(), items)
	require.Error(t, err)

	// No rollback: the purchase stays pending, orphaned.
	require.Len(t, purchases.purchases, 1)
	for id := range purchases.purchases {
		assert.Equal(t, entity.PurchaseStatusPending, purchases.status(id))
	}
}

func TestGetPurchaseStatus_OwnershipIsolation(t *testing.T) {
	svc, _, _, paygate := newCheckoutFixture()

	items := []entity.PurchaseItem{{Name: "Resume", Price: decimal.NewFromInt(29), Quantity: 1}}
	_, err := svc.InitiateCheckout(context.Background(), buyer(), items)
	require.NoError(t, err)
	purchaseID := paygate.checkoutCalls[0].Metadata["purchase_id"]

	owner, err := svc.GetPurchaseStatus(context.Background(), buyer(), purchaseID)
	require.NoError(t, err)
	assert.Equal(t, purchaseID, owner.ID)

	// Another user gets not-found, indistinguishable from a missing row.
	other := &entity.User{ID: "user-2", Email: "other@example.com"}
	_, err = svc.GetPurchaseStatus(context.Background(), other, purchaseID)
	assert.ErrorIs(t, err, ErrPurchaseNotFound)

	_, err = svc.GetPurchaseStatus(context.Background(), buyer(), "no-such-purchase")
	assert.ErrorIs(t, err, ErrPurchaseNotFound)
}

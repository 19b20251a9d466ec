package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-service/internal/entity"
)

func TestCreateCheckout_BuildsSubscriptionSession(t *testing.T) {
	subs := newMemSubscriptionRepo()
	paygate := &fakeGateway{checkoutURL: "https://pay.example.com/session/cs_sub"}
	svc := NewSubscriptionService(subs, paygate, "https://marketplace.example.com")

	url, err := svc.CreateCheckout(context.Background(), buyer(), "pro", false)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/session/cs_sub", url)

	require.NotNil(t, paygate.subscriptionCall)
	assert.Equal(t, "month", paygate.subscriptionCall.Interval)
	assert.Equal(t, int64(2900), paygate.subscriptionCall.UnitAmount)
	assert.Equal(t, "user-1", paygate.subscriptionCall.Metadata["user_id"])

	// No local row until the provider confirms through the webhook.
	assert.Equal(t, 0, subs.count())
}

func TestCreateCheckout_AnnualBillingChargesTenMonths(t *testing.T) {
	subs := newMemSubscriptionRepo()
	paygate := &fakeGateway{checkoutURL: "https://pay.example.com/session/cs_sub"}
	svc := NewSubscriptionService(subs, paygate, "https://marketplace.example.com")

	_, err := svc.CreateCheckout(context.Background(), buyer(), "starter", true)
	require.NoError(t, err)

	assert.Equal(t, "year", paygate.subscriptionCall.Interval)
	assert.Equal(t, int64(9000), paygate.subscriptionCall.UnitAmount)
}

func TestCreateCheckout_RefusedWhileActiveSubscriptionExists(t *testing.T) {
	subs := newMemSubscriptionRepo()
	require.NoError(t, subs.Create(context.Background(), &entity.Subscription{
		UserID:        "user-1",
		Plan:          "pro",
		Status:        entity.SubscriptionStatusActive,
		ExternalSubID: "sub_9",
	}))
	paygate := &fakeGateway{checkoutURL: "https://pay.example.com/session/cs_sub"}
	svc := NewSubscriptionService(subs, paygate, "https://marketplace.example.com")

	_, err := svc.CreateCheckout(context.Background(), buyer(), "team", false)
	assert.ErrorIs(t, err, ErrSubscriptionExists)
	assert.Nil(t, paygate.subscriptionCall)
	assert.Equal(t, 1, subs.count(), "no duplicate subscription row")
}

func TestCreateCheckout_UnknownPlan(t *testing.T) {
	svc := NewSubscriptionService(newMemSubscriptionRepo(), &fakeGateway{}, "")

	_, err := svc.CreateCheckout(context.Background(), buyer(), "enterprise", false)
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func TestCancel_CancelsAtProviderThenLocally(t *testing.T) {
	subs := newMemSubscriptionRepo()
	require.NoError(t, subs.Create(context.Background(), &entity.Subscription{
		UserID:        "user-1",
		Plan:          "pro",
		Status:        entity.SubscriptionStatusActive,
		ExternalSubID: "sub_9",
	}))
	paygate := &fakeGateway{}
	svc := NewSubscriptionService(subs, paygate, "")

	require.NoError(t, svc.Cancel(context.Background(), buyer()))
	assert.Equal(t, []string{"sub_9"}, paygate.canceled)

	sub, err := subs.GetByExternalID(context.Background(), "sub_9")
	require.NoError(t, err)
	assert.Equal(t, entity.SubscriptionStatusCanceled, sub.Status)

	// Nothing active anymore.
	assert.ErrorIs(t, svc.Cancel(context.Background(), buyer()), ErrSubscriptionNotFound)
}

func TestCurrent_ReturnsNilWithoutActiveSubscription(t *testing.T) {
	subs := newMemSubscriptionRepo()
	svc := NewSubscriptionService(subs, &fakeGateway{}, "")

	sub, err := svc.Current(context.Background(), buyer())
	require.NoError(t, err)
	assert.Nil(t, sub)

	require.NoError(t, subs.Create(context.Background(), &entity.Subscription{
		UserID: "user-1", Plan: "pro", Status: entity.SubscriptionStatusActive, ExternalSubID: "sub_9",
	}))
	sub, err = svc.Current(context.Background(), buyer())
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "pro", sub.Plan)
}

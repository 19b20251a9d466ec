package service

import (
	"context"
	"database/sql"
	"errors"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/gateway"
)

var (
	ErrSubscriptionExists = errors.New("user already has an active subscription")
	ErrUnknownPlan        = errors.New("unknown subscription plan")
)

// Monthly prices in minor currency units. Annual billing charges ten months
// up front.
var planPrices = map[string]int64{
	"starter": 900,
	"pro":     2900,
	"team":    9900,
}

const annualMonths = 10

type SubscriptionService struct {
	subscriptions SubscriptionRepository
	paygate       PaymentGateway
	appBaseURL    string
}

func NewSubscriptionService(subscriptions SubscriptionRepository, paygate PaymentGateway, appBaseURL string) *SubscriptionService {
	return &SubscriptionService{
		subscriptions: subscriptions,
		paygate:       paygate,
		appBaseURL:    appBaseURL,
	}
}

// CreateCheckout starts a hosted subscription checkout. A user with an active
// subscription is refused; the row itself is only created later, when the
// provider confirms the session through the webhook.
func (s *SubscriptionService) CreateCheckout(ctx context.Context, user *entity.User, plan string, isAnnual bool) (string, error) {
	monthly, ok := planPrices[plan]
	if !ok {
		return "", ErrUnknownPlan
	}

	_, err := s.subscriptions.GetActiveByUser(ctx, user.ID)
	if err == nil {
		return "", ErrSubscriptionExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		logger.Error().Err(err).Str("user_id", user.ID).Msg("Error checking active subscription")
		return "", err
	}

	amount := monthly
	interval := "month"
	if isAnnual {
		amount = monthly * annualMonths
		interval = "year"
	}

	url, err := s.paygate.CreateSubscriptionSession(ctx, gateway.SubscriptionParams{
		Plan:          plan,
		UnitAmount:    amount,
		Interval:      interval,
		SuccessURL:    s.appBaseURL + "/subscription-success",
		CancelURL:     s.appBaseURL + "/pricing",
		CustomerEmail: user.Email,
		Metadata: map[string]string{
			"plan":     plan,
			"user_id":  user.ID,
			"interval": interval,
		},
	})
	if err != nil {
		logger.Error().Err(err).Str("user_id", user.ID).Msg("Subscription session creation failed")
		return "", err
	}
	return url, nil
}

// Cancel cancels at the provider first, then marks the local row canceled. A
// provider failure leaves the row active so the user can retry.
func (s *SubscriptionService) Cancel(ctx context.Context, user *entity.User) error {
	sub, err := s.subscriptions.GetActiveByUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSubscriptionNotFound
		}
		return err
	}

	if err := s.paygate.CancelSubscription(ctx, sub.ExternalSubID); err != nil {
		logger.Error().Err(err).Str("subscription_id", sub.ExternalSubID).Msg("Error cancelling subscription at provider")
		return err
	}

	return s.subscriptions.UpdateStatus(ctx, sub, entity.SubscriptionStatusCanceled)
}

// Current returns the caller's active subscription, or nil without error when
// there is none.
func (s *SubscriptionService) Current(ctx context.Context, user *entity.User) (*entity.Subscription, error) {
	sub, err := s.subscriptions.GetActiveByUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

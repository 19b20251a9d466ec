package service

import (
	"context"

	"marketplace-service/internal/entity"
)

// CartService reads and prunes the persistent cart. Items are added to it as
// a side effect of InitiateCheckout; completion clears it via the webhook.
type CartService struct {
	carts CartRepository
}

func NewCartService(carts CartRepository) *CartService {
	return &CartService{carts: carts}
}

func (s *CartService) List(ctx context.Context, user *entity.User) ([]entity.CartItem, error) {
	items, err := s.carts.ListByUser(ctx, user.ID)
	if err != nil {
		logger.Error().Err(err).Str("user_id", user.ID).Msg("Error listing cart")
		return nil, err
	}
	if items == nil {
		items = []entity.CartItem{}
	}
	return items, nil
}

func (s *CartService) Remove(ctx context.Context, user *entity.User, name string) error {
	return s.carts.DeleteItem(ctx, user.ID, name)
}

package api

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/service"
)

type CheckoutHandler struct {
	checkoutService *service.CheckoutService
}

func NewCheckoutHandler(checkoutService *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

type checkoutItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

func (h *CheckoutHandler) Checkout(c echo.Context) error {
	user := claimsUser(c)
	if user == nil {
		return c.JSON(401, map[string]string{"error": "Unauthorized"})
	}

	var req struct {
		Items []checkoutItem `json:"items"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	items := make([]entity.PurchaseItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, entity.PurchaseItem{
			Name:        item.Name,
			Description: item.Description,
			Price:       decimal.NewFromFloat(item.Price),
			Quantity:    item.Quantity,
		})
	}

	url, err := h.checkoutService.InitiateCheckout(c.Request().Context(), user, items)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) || errors.Is(err, service.ErrInvalidItem) {
			return c.JSON(400, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, map[string]string{"url": url})
}

func (h *CheckoutHandler) GetPurchase(c echo.Context) error {
	user := claimsUser(c)
	if user == nil {
		return c.JSON(401, map[string]string{"error": "Unauthorized"})
	}

	purchase, err := h.checkoutService.GetPurchaseStatus(c.Request().Context(), user, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrPurchaseNotFound) {
			return c.JSON(404, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, purchase)
}

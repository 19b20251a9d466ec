package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"marketplace-service/internal/service"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

func (h *SubscriptionHandler) Create(c echo.Context) error {
	user := claimsUser(c)
	if user == nil {
		return c.JSON(401, map[string]string{"error": "Unauthorized"})
	}

	var req struct {
		Plan     string `json:"plan"`
		IsAnnual bool   `json:"isAnnual"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	url, err := h.subscriptionService.CreateCheckout(c.Request().Context(), user, req.Plan, req.IsAnnual)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownPlan):
			return c.JSON(400, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrSubscriptionExists):
			return c.JSON(409, map[string]string{"error": err.Error()})
		default:
			return c.JSON(500, map[string]string{"error": err.Error()})
		}
	}

	return c.JSON(200, map[string]string{"url": url})
}

func (h *SubscriptionHandler) Cancel(c echo.Context) error {
	user := claimsUser(c)
	if user == nil {
		return c.JSON(401, map[string]string{"error": "Unauthorized"})
	}

	if err := h.subscriptionService.Cancel(c.Request().Context(), user); err != nil {
		if errors.Is(err, service.ErrSubscriptionNotFound) {
			return c.JSON(404, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, map[string]bool{"success": true})
}

// Current returns the active subscription, or a JSON null when there is none.
func (h *SubscriptionHandler) Current(c echo.Context) error {
	user := claimsUser(c)
	if user == nil {
		return c.JSON(401, map[string]string{"error": "Unauthorized"})
	}

	sub, err := h.subscriptionService.Current(c.Request().Context(), user)
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, sub)
}

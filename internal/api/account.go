package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"marketplace-service/internal/service"
)

type AccountHandler struct {
	userService *service.UserService
	cartService *service.CartService
}

func NewAccountHandler(userService *service.UserService, cartService *service.CartService) *AccountHandler {
	return &AccountHandler{userService: userService, cartService: cartService}
}

// UpdateSettings changes the display name and, when both password fields are
// present, the password.
func (h *AccountHandler) UpdateSettings(c echo.Context) error {
	user := claimsUser(c)
	if user == nil {
		return c.JSON(401, map[string]string{"error": "Unauthorized"})
	}

	var req struct {
		Name            string `json:"name"`
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	ctx := c.Request().Context()
	if req.Name != "" {
		if err := h.userService.UpdateName(ctx, user, req.Name); err != nil {
			return c.JSON(500, map[string]string{"error": err.Error()})
		}
	}
	if req.NewPassword != "" {
		err := h.userService.ChangePassword(ctx, user, req.CurrentPassword, req.NewPassword)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrFederatedAccount) {
				return c.JSON(400, map[string]string{"error": err.Error()})
			}
			return c.JSON(500, map[string]string{"error": err.Error()})
		}
	}

	return c.JSON(200, map[string]bool{"success": true})
}

func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	user := claimsUser(c)
	if user == nil {
		return c.JSON(401, map[string]string{"error": "Unauthorized"})
	}

	if err := h.userService.DeleteAccount(c.Request().Context(), user); err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, map[string]bool{"success": true})
}

func (h *AccountHandler) GetCart(c echo.Context) error {
	user := claimsUser(c)
	if user == nil {
		return c.JSON(401, map[string]string{"error": "Unauthorized"})
	}

	items, err := h.cartService.List(c.Request().Context(), user)
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, items)
}

func (h *AccountHandler) RemoveCartItem(c echo.Context) error {
	user := claimsUser(c)
	if user == nil {
		return c.JSON(401, map[string]string{"error": "Unauthorized"})
	}

	if err := h.cartService.Remove(c.Request().Context(), user, c.Param("name")); err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, map[string]bool{"success": true})
}

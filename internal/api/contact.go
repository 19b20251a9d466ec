package api

import (
	"github.com/labstack/echo/v4"
)

// ContactSender is satisfied by *invoice.Mailer.
type ContactSender interface {
	SendContact(name, email, message string) error
}

type ContactHandler struct {
	sender ContactSender
}

func NewContactHandler(sender ContactSender) *ContactHandler {
	return &ContactHandler{sender: sender}
}

func (h *ContactHandler) Submit(c echo.Context) error {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}
	if req.Email == "" || req.Message == "" {
		return c.JSON(400, map[string]string{"error": "Email and message are required"})
	}

	if err := h.sender.SendContact(req.Name, req.Email, req.Message); err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	return c.JSON(200, map[string]bool{"success": true})
}

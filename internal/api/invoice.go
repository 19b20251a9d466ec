package api

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	"marketplace-service/internal/service"
)

type InvoiceHandler struct {
	invoiceService *service.InvoiceService
}

func NewInvoiceHandler(invoiceService *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Download serves the invoice PDF inline, as an attachment
// (?download=true), or sends it by mail (?email=true).
func (h *InvoiceHandler) Download(c echo.Context) error {
	user := claimsUser(c)
	if user == nil {
		return c.JSON(401, map[string]string{"error": "Unauthorized"})
	}
	purchaseID := c.Param("id")

	if c.QueryParam("email") == "true" {
		if err := h.invoiceService.Email(c.Request().Context(), user, purchaseID); err != nil {
			return h.invoiceError(c, err)
		}
		return c.JSON(200, map[string]bool{"success": true})
	}

	pdf, inv, err := h.invoiceService.Render(c.Request().Context(), user, purchaseID)
	if err != nil {
		return h.invoiceError(c, err)
	}

	disposition := "inline"
	if c.QueryParam("download") == "true" {
		disposition = "attachment"
	}
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%s.pdf", disposition, inv.Number))

	return c.Blob(200, "application/pdf", pdf)
}

func (h *InvoiceHandler) invoiceError(c echo.Context, err error) error {
	if errors.Is(err, service.ErrPurchaseNotFound) || errors.Is(err, service.ErrInvoiceNotFound) {
		return c.JSON(404, map[string]string{"error": err.Error()})
	}
	return c.JSON(500, map[string]string{"error": err.Error()})
}

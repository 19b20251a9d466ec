package api

import (
	"errors"
	"io"

	"github.com/labstack/echo/v4"

	"marketplace-service/internal/gateway"
	"marketplace-service/internal/service"
)

// SignatureHeader carries the provider's timestamped HMAC over the raw body.
const SignatureHeader = "Gateway-Signature"

// EventParser is satisfied by *gateway.Client.
type EventParser interface {
	ParseEvent(payload []byte, sigHeader string) (*gateway.Event, error)
}

type WebhookHandler struct {
	parser         EventParser
	webhookService *service.WebhookService
}

func NewWebhookHandler(parser EventParser, webhookService *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{parser: parser, webhookService: webhookService}
}

// Handle serves both the purchase and the subscription webhook endpoints.
// The body is read raw: signature verification covers the exact bytes the
// provider signed, so it must happen before any JSON parsing.
func (h *WebhookHandler) Handle(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Unreadable request body"})
	}

	event, err := h.parser.ParseEvent(body, c.Request().Header.Get(SignatureHeader))
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidSignature) {
			return c.JSON(400, map[string]string{"error": "invalid signature"})
		}
		return c.JSON(400, map[string]string{"error": "Malformed event payload"})
	}

	if err := h.webhookService.HandleEvent(c.Request().Context(), event); err != nil {
		switch {
		case errors.Is(err, service.ErrMalformedEvent):
			return c.JSON(400, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrSubscriptionNotFound):
			return c.JSON(404, map[string]string{"error": err.Error()})
		default:
			// 5xx asks the provider to redeliver later. Internals stay out of
			// the response body.
			c.Logger().Error(err)
			return c.JSON(500, map[string]string{"error": "Event processing failed"})
		}
	}

	return c.JSON(200, map[string]bool{"received": true})
}

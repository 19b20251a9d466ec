package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidSignature = errors.New("invalid signature")

// signatureTolerance bounds how old a signed timestamp may be before the
// delivery is treated as a replay.
const signatureTolerance = 5 * time.Minute

// ParseEvent verifies the provider's signature over the raw payload and, only
// then, decodes it into a typed Event. The raw body must be passed exactly as
// received; re-serialized JSON will not verify.
func (c *Client) ParseEvent(payload []byte, sigHeader string) (*Event, error) {
	if err := c.verifySignature(payload, sigHeader, time.Now()); err != nil {
		return nil, err
	}
	return decodeEvent(payload)
}

// verifySignature checks a "t=<unix>,v1=<hex hmac-sha256>" header where the
// MAC covers "<t>.<payload>" keyed with the shared webhook secret.
func (c *Client) verifySignature(payload []byte, sigHeader string, now time.Time) error {
	var ts int64
	var sig string
	for _, part := range strings.Split(sigHeader, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			ts = parsed
		case "v1":
			sig = v
		}
	}
	if ts == 0 || sig == "" {
		return ErrInvalidSignature
	}

	age := now.Sub(time.Unix(ts, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return ErrInvalidSignature
	}

	expected := computeSignature(c.webhookSecret, ts, payload)
	provided, err := hex.DecodeString(sig)
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal(provided, expected) {
		return ErrInvalidSignature
	}
	return nil
}

func computeSignature(secret string, ts int64, payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignPayload builds the signature header the provider would attach to a
// payload. It exists to simulate webhook deliveries in tests.
func SignPayload(secret string, payload []byte, at time.Time) string {
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(computeSignature(secret, at.Unix(), payload)))
}

type webhookPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type sessionObject struct {
	ID              string `json:"id"`
	Customer        string `json:"customer"`
	Subscription    string `json:"subscription"`
	CustomerDetails struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"customer_details"`
	Metadata map[string]string `json:"metadata"`
}

type subscriptionObject struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
}

type invoiceObject struct {
	ID           string `json:"id"`
	Subscription string `json:"subscription"`
}

func decodeEvent(payload []byte) (*Event, error) {
	var raw webhookPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}

	event := &Event{ID: raw.ID}

	switch raw.Type {
	case "checkout.session.completed", "checkout.session.expired":
		var obj sessionObject
		if err := json.Unmarshal(raw.Data.Object, &obj); err != nil {
			return nil, fmt.Errorf("decode session object: %w", err)
		}
		event.Type = EventCheckoutCompleted
		if raw.Type == "checkout.session.expired" {
			event.Type = EventCheckoutExpired
		}
		event.Session = &SessionEvent{
			ID:             obj.ID,
			CustomerID:     obj.Customer,
			SubscriptionID: obj.Subscription,
			CustomerName:   obj.CustomerDetails.Name,
			CustomerEmail:  obj.CustomerDetails.Email,
			Metadata:       obj.Metadata,
		}

	case "customer.subscription.updated", "customer.subscription.deleted":
		var obj subscriptionObject
		if err := json.Unmarshal(raw.Data.Object, &obj); err != nil {
			return nil, fmt.Errorf("decode subscription object: %w", err)
		}
		event.Type = EventSubscriptionUpdated
		if raw.Type == "customer.subscription.deleted" {
			event.Type = EventSubscriptionDeleted
		}
		event.Subscription = &SubscriptionEvent{
			ID:                 obj.ID,
			Status:             obj.Status,
			CurrentPeriodStart: time.Unix(obj.CurrentPeriodStart, 0),
			CurrentPeriodEnd:   time.Unix(obj.CurrentPeriodEnd, 0),
		}

	case "invoice.payment_succeeded", "invoice.payment_failed":
		var obj invoiceObject
		if err := json.Unmarshal(raw.Data.Object, &obj); err != nil {
			return nil, fmt.Errorf("decode invoice object: %w", err)
		}
		event.Type = EventInvoicePaymentSucceeded
		if raw.Type == "invoice.payment_failed" {
			event.Type = EventInvoicePaymentFailed
		}
		event.Invoice = &InvoiceEvent{ID: obj.ID, SubscriptionID: obj.Subscription}

	default:
		event.Type = EventUnknown
	}

	return event, nil
}

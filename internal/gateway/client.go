// Package gateway wraps the payment provider's hosted-checkout and
// subscription-billing HTTP API. It carries no business logic: it creates
// sessions, cancels subscriptions and turns signed webhook payloads into
// typed events.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	apiURL        string
	secretKey     string
	webhookSecret string
	httpClient    *http.Client
}

func NewClient(apiURL, secretKey, webhookSecret string) *Client {
	return &Client{
		apiURL:        apiURL,
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
	}
}

type LineItem struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UnitAmount  int64  `json:"unit_amount"` // minor currency units
	Quantity    int    `json:"quantity"`
}

type CheckoutParams struct {
	LineItems     []LineItem
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	Metadata      map[string]string
}

type SubscriptionParams struct {
	Plan          string
	UnitAmount    int64  // minor currency units per billing period
	Interval      string // "month" or "year"
	TrialDays     int
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	Metadata      map[string]string
}

type session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckoutSession creates a one-time hosted checkout session and
// returns the URL the customer is redirected to.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error) {
	body := map[string]interface{}{
		"mode":           "payment",
		"line_items":     params.LineItems,
		"success_url":    params.SuccessURL,
		"cancel_url":     params.CancelURL,
		"customer_email": params.CustomerEmail,
		"metadata":       params.Metadata,
	}
	return c.createSession(ctx, body)
}

// CreateSubscriptionSession creates a recurring-billing checkout session.
func (c *Client) CreateSubscriptionSession(ctx context.Context, params SubscriptionParams) (string, error) {
	body := map[string]interface{}{
		"mode":           "subscription",
		"plan":           params.Plan,
		"unit_amount":    params.UnitAmount,
		"interval":       params.Interval,
		"trial_days":     params.TrialDays,
		"success_url":    params.SuccessURL,
		"cancel_url":     params.CancelURL,
		"customer_email": params.CustomerEmail,
		"metadata":       params.Metadata,
	}
	return c.createSession(ctx, body)
}

func (c *Client) createSession(ctx context.Context, body map[string]interface{}) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/v1/checkout/sessions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("create checkout session: provider returned %d: %s", resp.StatusCode, msg)
	}

	var s session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return "", err
	}
	if s.URL == "" {
		return "", fmt.Errorf("create checkout session: provider returned no url")
	}

	return s.URL, nil
}

// CancelSubscription cancels a subscription at the provider by its external id.
func (c *Client) CancelSubscription(ctx context.Context, externalID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.apiURL+"/v1/subscriptions/"+externalID, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("cancel subscription %s: provider returned %d: %s", externalID, resp.StatusCode, msg)
	}

	return nil
}

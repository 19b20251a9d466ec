package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCheckoutSession(t *testing.T) {
	var received map[string]interface{}
	var auth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]string{"id": "cs_1", "url": "https://pay.example.com/cs_1"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test", "whsec_test")
	url, err := client.CreateCheckoutSession(context.Background(), CheckoutParams{
		LineItems:  []LineItem{{Name: "Resume", UnitAmount: 2900, Quantity: 1}},
		SuccessURL: "https://app.example.com/success",
		CancelURL:  "https://app.example.com/cart",
		Metadata:   map[string]string{"purchase_id": "p-1", "user_id": "user-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/cs_1", url)

	assert.Equal(t, "Bearer sk_test", auth)
	assert.Equal(t, "payment", received["mode"])
	metadata := received["metadata"].(map[string]interface{})
	assert.Equal(t, "p-1", metadata["purchase_id"])
}

func TestCreateSubscriptionSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "subscription", body["mode"])
		assert.Equal(t, "year", body["interval"])
		json.NewEncoder(w).Encode(map[string]string{"id": "cs_2", "url": "https://pay.example.com/cs_2"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test", "whsec_test")
	url, err := client.CreateSubscriptionSession(context.Background(), SubscriptionParams{
		Plan:       "pro",
		UnitAmount: 29000,
		Interval:   "year",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/cs_2", url)
}

func TestCreateCheckoutSession_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_bad", "whsec_test")
	_, err := client.CreateCheckoutSession(context.Background(), CheckoutParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestCancelSubscription(t *testing.T) {
	var path, method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		method = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test", "whsec_test")
	require.NoError(t, client.CancelSubscription(context.Background(), "sub_9"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/v1/subscriptions/sub_9", path)
}

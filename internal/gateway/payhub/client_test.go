package payhub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gatherhub/ticketing/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestSign_Deterministic(t *testing.T) {
	a := Sign(testSecret, "O1", "P1", 50000, gateway.StatusPaid)
	b := Sign(testSecret, "O1", "P1", 50000, gateway.StatusPaid)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex-encoded sha256
}

func TestVerifyCallback(t *testing.T) {
	c := New(Config{Secret: testSecret})

	cb := &gateway.Callback{
		OrderRef:   "O1",
		PaymentRef: "P1",
		Amount:     50000,
		Status:     gateway.StatusPaid,
		Signature:  Sign(testSecret, "O1", "P1", 50000, gateway.StatusPaid),
	}
	assert.NoError(t, c.VerifyCallback(cb))

	// Tampered amount must not verify.
	cb.Amount = 1
	assert.ErrorIs(t, c.VerifyCallback(cb), gateway.ErrSignatureMismatch)

	// A failure signature cannot be replayed as a success.
	cb.Amount = 50000
	cb.Signature = Sign(testSecret, "O1", "P1", 50000, gateway.StatusFailed)
	assert.ErrorIs(t, c.VerifyCallback(cb), gateway.ErrSignatureMismatch)

	cb.Signature = "not-a-signature"
	assert.ErrorIs(t, c.VerifyCallback(cb), gateway.ErrSignatureMismatch)
}

func TestOpenOrder(t *testing.T) {
	var got orderPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, ordersPath, r.URL.Path)
		assert.Equal(t, "Bearer api-key", r.Header.Get("Authorization"))
		assert.Equal(t, "merchant-1", r.Header.Get("X-Merchant-ID"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.NotEmpty(t, r.Header.Get("Digest"))
		assert.NotEmpty(t, r.Header.Get("Signature"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(orderReply{OrderRef: "ORD-123", Status: "OPEN"})
	}))
	defer srv.Close()

	c := New(Config{
		BaseURL:    srv.URL,
		MerchantID: "merchant-1",
		APIKey:     "api-key",
		Secret:     testSecret,
	})

	ref, err := c.OpenOrder(context.Background(), &gateway.OrderRequest{
		BookingID:  "bkg-1",
		Amount:     50000,
		Currency:   "INR",
		BuyerEmail: "alice@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "ORD-123", ref)
	assert.Equal(t, "bkg-1", got.Reference)
	assert.Equal(t, "500.00", got.Amount) // minor units on the wire as decimal string
	assert.Equal(t, "INR", got.Currency)
}

func TestOpenOrder_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"merchant suspended"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Secret: testSecret})
	_, err := c.OpenOrder(context.Background(), &gateway.OrderRequest{BookingID: "bkg-1", Amount: 100, Currency: "INR"})
	assert.Error(t, err)
}

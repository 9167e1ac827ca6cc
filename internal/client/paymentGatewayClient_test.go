package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"storefront-api/internal/config"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGatewayClient(t *testing.T, handler http.HandlerFunc, webhookSecret string) PaymentGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewPaymentGatewayClient(&config.PaymentGateway{
		BaseApiURL:    srv.URL,
		SecretKey:     "sk_test_123",
		WebhookSecret: webhookSecret,
		Currency:      "NGN",
	})
}

func TestInitializeSession(t *testing.T) {
	var got map[string]interface{}
	gw := newGatewayClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.example/abc","access_code":"abc","reference":"ORD-1"}}`))
	}, "")

	session, err := gw.InitializeSession(context.Background(), &InitializeSessionRequest{
		Amount:      decimal.RequireFromString("110.00"),
		Email:       "ada@example.com",
		Reference:   "ORD-1",
		CallbackURL: "http://shop.local/api/payments/callback?reference=ORD-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.example/abc", session.SessionURL)
	assert.Equal(t, "abc", session.AccessCode)
	assert.Equal(t, "ORD-1", session.Reference)
	assert.Equal(t, float64(11000), got["amount"])
	assert.Equal(t, "NGN", got["currency"])
	assert.Equal(t, "ada@example.com", got["email"])
}

func TestInitializeSession_GatewayError(t *testing.T) {
	gw := newGatewayClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`upstream down`))
	}, "")

	_, err := gw.InitializeSession(context.Background(), &InitializeSessionRequest{Amount: decimal.NewFromInt(1), Reference: "r"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestInitializeSession_RejectedEnvelope(t *testing.T) {
	gw := newGatewayClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
	}, "")

	_, err := gw.InitializeSession(context.Background(), &InitializeSessionRequest{Amount: decimal.NewFromInt(1), Reference: "r"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid key")
}

func TestVerifyByReference(t *testing.T) {
	gw := newGatewayClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transaction/verify/ORD-1", r.URL.Path)
		w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"id":4099260516,"status":"success","reference":"ORD-1","amount":11000,"currency":"NGN"}}`))
	}, "")

	v, err := gw.VerifyByReference(context.Background(), "ORD-1")
	require.NoError(t, err)

	assert.True(t, v.Success)
	assert.Equal(t, int64(11000), v.AmountMinorUnits)
	assert.Equal(t, "NGN", v.Currency)
	assert.Equal(t, "4099260516", v.GatewayTransactionID)
	assert.NotEmpty(t, v.Raw)
}

func TestVerifyByReference_NotSuccessful(t *testing.T) {
	gw := newGatewayClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":true,"data":{"id":1,"status":"abandoned","amount":11000,"currency":"NGN"}}`))
	}, "")

	v, err := gw.VerifyByReference(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.False(t, v.Success)
}

func TestIsValidSignature(t *testing.T) {
	gw := newGatewayClient(t, func(w http.ResponseWriter, r *http.Request) {}, "whsec")
	body := []byte(`{"event":"charge.success","data":{"reference":"ORD-1"}}`)

	assert.True(t, gw.HasWebhookSecret())
	assert.True(t, gw.IsValidSignature(body, SignPayload("whsec", body)))
	assert.False(t, gw.IsValidSignature(body, SignPayload("other", body)))
	assert.False(t, gw.IsValidSignature(append(body, ' '), SignPayload("whsec", body)))
	assert.False(t, gw.IsValidSignature(body, ""))
}

func TestIsValidSignature_NoSecretTrustsEverything(t *testing.T) {
	gw := newGatewayClient(t, func(w http.ResponseWriter, r *http.Request) {}, "")

	assert.False(t, gw.HasWebhookSecret())
	assert.True(t, gw.IsValidSignature([]byte(`{}`), "garbage"))
}

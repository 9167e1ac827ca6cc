package client

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"storefront-api/internal/config"
	"storefront-api/internal/pricing"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentGateway is the hosted-payment processor: it opens checkout sessions,
// confirms transactions by merchant reference and signs its webhooks.
type PaymentGateway interface {
	InitializeSession(ctx context.Context, req *InitializeSessionRequest) (*GatewaySession, error)
	VerifyByReference(ctx context.Context, reference string) (*Verification, error)
	IsValidSignature(rawBody []byte, signature string) bool
	HasWebhookSecret() bool
}

type InitializeSessionRequest struct {
	Amount      decimal.Decimal // major units
	Email       string
	Reference   string
	CallbackURL string
}

type GatewaySession struct {
	SessionURL string
	AccessCode string
	Reference  string
	Raw        json.RawMessage
}

type Verification struct {
	Success              bool
	AmountMinorUnits     int64
	Currency             string
	GatewayTransactionID string
	Raw                  json.RawMessage
}

type paymentGatewayClientImpl struct {
	httpClient    *http.Client
	baseApiURL    string
	secretKey     string
	webhookSecret string
	currency      string
}

type gatewayEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	ID        json.Number `json:"id"`
	Status    string      `json:"status"`
	Reference string      `json:"reference"`
	Amount    int64       `json:"amount"`
	Currency  string      `json:"currency"`
}

func NewPaymentGatewayClient(gatewayCfg *config.PaymentGateway) PaymentGateway {
	timeout := gatewayCfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &paymentGatewayClientImpl{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseApiURL:    strings.TrimRight(gatewayCfg.BaseApiURL, "/"),
		secretKey:     gatewayCfg.SecretKey,
		webhookSecret: gatewayCfg.WebhookSecret,
		currency:      gatewayCfg.Currency,
	}
}

func (c *paymentGatewayClientImpl) InitializeSession(ctx context.Context, req *InitializeSessionRequest) (*GatewaySession, error) {
	payload := map[string]interface{}{
		"amount":       pricing.ToMinorUnits(req.Amount),
		"email":        req.Email,
		"reference":    req.Reference,
		"callback_url": req.CallbackURL,
		"currency":     c.currency,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return nil, fmt.Errorf("initialize transaction: %w", err)
	}

	var data initializeData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode initialize response: %w", err)
	}
	if data.AuthorizationURL == "" {
		return nil, fmt.Errorf("initialize response has no authorization_url")
	}

	reference := data.Reference
	if reference == "" {
		reference = req.Reference
	}

	return &GatewaySession{
		SessionURL: data.AuthorizationURL,
		AccessCode: data.AccessCode,
		Reference:  reference,
		Raw:        raw,
	}, nil
}

func (c *paymentGatewayClientImpl) VerifyByReference(ctx context.Context, reference string) (*Verification, error) {
	raw, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, fmt.Errorf("verify transaction %s: %w", reference, err)
	}

	var data verifyData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}

	return &Verification{
		Success:              data.Status == "success",
		AmountMinorUnits:     data.Amount,
		Currency:             data.Currency,
		GatewayTransactionID: data.ID.String(),
		Raw:                  raw,
	}, nil
}

// IsValidSignature compares the hex HMAC-SHA512 of the raw body with the
// signature header in constant time. Without a configured secret every body passes.
func (c *paymentGatewayClientImpl) IsValidSignature(rawBody []byte, signature string) bool {
	if c.webhookSecret == "" {
		return true
	}

	expected := SignPayload(c.webhookSecret, rawBody)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

func (c *paymentGatewayClientImpl) HasWebhookSecret() bool {
	return c.webhookSecret != ""
}

// do sends the request and returns the envelope's data field.
func (c *paymentGatewayClientImpl) do(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway error %d: %s", resp.StatusCode, string(respBody))
	}

	var envelope gatewayEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	if !envelope.Status {
		return nil, fmt.Errorf("gateway rejected request: %s", envelope.Message)
	}

	return envelope.Data, nil
}

// SignPayload computes the signature the gateway would send for body.
func SignPayload(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

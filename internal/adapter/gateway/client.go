package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/fueldrop/fueldrop/internal/domain/errors"
	"github.com/fueldrop/fueldrop/internal/domain/model"
)

// IntentStatus mirrors the gateway-side payment intent state.
type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "pending"
	IntentStatusSucceeded IntentStatus = "succeeded"
	IntentStatusFailed    IntentStatus = "failed"
)

// Intent is the gateway-side handle for one attempted payment.
type Intent struct {
	Ref           string       `json:"id"`
	Status        IntentStatus `json:"status"`
	TransactionID string       `json:"transaction_id"`
	Amount        int64        `json:"amount"`
	Currency      string       `json:"currency"`
	ErrorMessage  string       `json:"error_message,omitempty"`
}

// Client exposes the payment gateway operations this core consumes.
type Client interface {
	CreateIntent(ctx context.Context, amount model.Money, currency string, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, ref string) (*Intent, error)
	Refund(ctx context.Context, ref string) (string, error)
	VerifySignature(payload []byte, signature string) bool
}

// HTTPClient implements Client over the gateway HTTP API.
type HTTPClient struct {
	baseURL       *url.URL
	apiKey        string
	webhookSecret []byte
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewHTTPClient creates a gateway client with a default timeout.
func NewHTTPClient(baseURL, apiKey, webhookSecret string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("gateway url must be absolute")
	}
	return &HTTPClient{
		baseURL:       parsed,
		apiKey:        apiKey,
		webhookSecret: []byte(webhookSecret),
		logger:        logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

type createIntentRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	IdempotencyKey string            `json:"idempotency_key"`
}

type refundResponse struct {
	RefundID string `json:"refund_id"`
}

// CreateIntent registers a payment attempt with the gateway.
func (c *HTTPClient) CreateIntent(ctx context.Context, amount model.Money, currency string, metadata map[string]string) (*Intent, error) {
	body := createIntentRequest{
		Amount:         int64(amount),
		Currency:       currency,
		Metadata:       metadata,
		IdempotencyKey: uuid.NewString(),
	}
	var intent Intent
	if err := c.do(ctx, http.MethodPost, "/v1/intents", body, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// RetrieveIntent queries the gateway for the intent's current status.
func (c *HTTPClient) RetrieveIntent(ctx context.Context, ref string) (*Intent, error) {
	var intent Intent
	if err := c.do(ctx, http.MethodGet, path.Join("/v1/intents", url.PathEscape(ref)), nil, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// Refund asks the gateway to reverse a settled intent.
func (c *HTTPClient) Refund(ctx context.Context, ref string) (string, error) {
	var resp refundResponse
	if err := c.do(ctx, http.MethodPost, path.Join("/v1/intents", url.PathEscape(ref), "refund"), nil, &resp); err != nil {
		return "", err
	}
	return resp.RefundID, nil
}

// VerifySignature checks an HMAC-SHA256 hex signature over the raw
// webhook payload against the shared secret.
func (c *HTTPClient) VerifySignature(payload []byte, signature string) bool {
	return VerifyHMAC(c.webhookSecret, payload, signature)
}

// VerifyHMAC is the signature primitive, shared with tests and fakes.
func VerifyHMAC(secret, payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *HTTPClient) do(ctx context.Context, method, endpointPath string, body, out any) error {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, endpointPath)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domainErrors.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Error("gateway request failed",
			slog.String("path", endpointPath),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(raw)),
		)
		return fmt.Errorf("%w: gateway returned %s", domainErrors.ErrUpstream, resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", domainErrors.ErrUpstream, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode gateway response: %v", domainErrors.ErrUpstream, err)
	}
	return nil
}

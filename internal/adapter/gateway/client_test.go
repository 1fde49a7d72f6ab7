package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	domainErrors "github.com/fueldrop/fueldrop/internal/domain/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewHTTPClientValidatesURL(t *testing.T) {
	if _, err := NewHTTPClient("://bad-url", "key", "secret", testLogger()); err == nil {
		t.Fatal("expected error for invalid url")
	}
	if _, err := NewHTTPClient("/relative", "key", "secret", testLogger()); err == nil {
		t.Fatal("expected error for relative url")
	}
}

func TestCreateIntent(t *testing.T) {
	var captured createIntentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/intents" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Intent{Ref: "pi_1", Status: IntentStatusPending, Amount: captured.Amount, Currency: captured.Currency})
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, "key", "secret", testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	intent, err := client.CreateIntent(context.Background(), 117690, "INR", map[string]string{"order_number": "FD1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent.Ref != "pi_1" || intent.Status != IntentStatusPending {
		t.Fatalf("unexpected intent %+v", intent)
	}
	if captured.Amount != 117690 || captured.Currency != "INR" {
		t.Fatalf("unexpected request body %+v", captured)
	}
	if captured.IdempotencyKey == "" {
		t.Fatal("expected an idempotency key on every create")
	}
	if captured.Metadata["order_number"] != "FD1" {
		t.Fatalf("expected metadata to pass through, got %v", captured.Metadata)
	}
}

func TestRetrieveIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/intents/pi_42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Intent{Ref: "pi_42", Status: IntentStatusSucceeded, TransactionID: "txn_9"})
	}))
	defer server.Close()

	client, _ := NewHTTPClient(server.URL, "key", "secret", testLogger())
	intent, err := client.RetrieveIntent(context.Background(), "pi_42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent.Status != IntentStatusSucceeded || intent.TransactionID != "txn_9" {
		t.Fatalf("unexpected intent %+v", intent)
	}
}

func TestRefund(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/intents/pi_42/refund" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(refundResponse{RefundID: "re_7"})
	}))
	defer server.Close()

	client, _ := NewHTTPClient(server.URL, "key", "secret", testLogger())
	refundID, err := client.Refund(context.Background(), "pi_42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refundID != "re_7" {
		t.Fatalf("unexpected refund id %q", refundID)
	}
}

func TestErrorStatusesWrapUpstream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, _ := NewHTTPClient(server.URL, "key", "secret", testLogger())
	if _, err := client.RetrieveIntent(context.Background(), "pi_42"); !errors.Is(err, domainErrors.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestUnreachableGatewayWrapsUpstream(t *testing.T) {
	client, _ := NewHTTPClient("http://127.0.0.1:1", "key", "secret", testLogger())
	if _, err := client.RetrieveIntent(context.Background(), "pi_42"); !errors.Is(err, domainErrors.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"type":"payment.succeeded","intent_ref":"pi_42"}`)
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	client, _ := NewHTTPClient("http://gateway", "key", "secret", testLogger())
	if !client.VerifySignature(payload, signature) {
		t.Fatal("expected valid signature to verify")
	}
	if client.VerifySignature(payload, "deadbeef") {
		t.Fatal("expected forged signature to fail")
	}
	if client.VerifySignature([]byte("tampered"), signature) {
		t.Fatal("expected tampered payload to fail")
	}
}

func TestParseWebhook(t *testing.T) {
	event, err := ParseWebhook([]byte(`{"type":"payment.failed","intent_ref":"pi_42","error_message":"card declined"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Type != WebhookPaymentFailed || event.IntentRef != "pi_42" || event.ErrorMessage != "card declined" {
		t.Fatalf("unexpected event %+v", event)
	}

	if _, err := ParseWebhook([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

package gateway

import "encoding/json"

// Webhook event types delivered by the gateway out-of-band.
const (
	WebhookPaymentSucceeded = "payment.succeeded"
	WebhookPaymentFailed    = "payment.failed"
)

// WebhookEvent is the signed payload the gateway posts to our endpoint.
// Orders are looked up by IntentRef, not order id, because the caller
// is the gateway rather than a user.
type WebhookEvent struct {
	Type          string `json:"type"`
	IntentRef     string `json:"intent_ref"`
	TransactionID string `json:"transaction_id"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// ParseWebhook decodes a verified webhook payload.
func ParseWebhook(payload []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

package dto

// ConfirmPaymentRequest carries the gateway intent reference for the
// synchronous confirm path.
type ConfirmPaymentRequest struct {
	IntentRef string `json:"intent_ref"`
}

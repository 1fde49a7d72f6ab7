package dto

import "time"

// AddressPayload mirrors the delivery target on the wire.
type AddressPayload struct {
	Line         string  `json:"line"`
	Landmark     string  `json:"landmark,omitempty"`
	Instructions string  `json:"instructions,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// PlaceOrderRequest describes order placement payload.
type PlaceOrderRequest struct {
	FuelType      string         `json:"fuel_type"`
	Quantity      float64        `json:"quantity"`
	PaymentMethod string         `json:"payment_method"`
	Address       AddressPayload `json:"address"`
}

// RatingPayload is one filled rating slot.
type RatingPayload struct {
	Score   int       `json:"score"`
	Comment string    `json:"comment,omitempty"`
	RatedAt time.Time `json:"rated_at"`
}

// OrderResponse describes one order on the wire.
type OrderResponse struct {
	ID               int64          `json:"id"`
	Number           string         `json:"number"`
	CustomerID       int64          `json:"customer_id"`
	DriverID         *int64         `json:"driver_id,omitempty"`
	FuelType         string         `json:"fuel_type"`
	Quantity         float64        `json:"quantity"`
	UnitPrice        float64        `json:"unit_price"`
	DeliveryFee      float64        `json:"delivery_fee"`
	Total            float64        `json:"total"`
	Address          AddressPayload `json:"address"`
	Status           string         `json:"status"`
	PaymentStatus    string         `json:"payment_status"`
	PaymentMethod    string         `json:"payment_method"`
	PaymentIntentRef string         `json:"payment_intent_ref,omitempty"`
	PaidAt           *time.Time     `json:"paid_at,omitempty"`
	EstimatedArrival *time.Time     `json:"estimated_arrival,omitempty"`
	DeliveredAt      *time.Time     `json:"delivered_at,omitempty"`
	CustomerRating   *RatingPayload `json:"customer_rating,omitempty"`
	DriverRating     *RatingPayload `json:"driver_rating,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

// MilestoneResponse is one tracking timeline entry.
type MilestoneResponse struct {
	Kind       string         `json:"kind"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// AdvanceRequest asks to move an order along the delivery path.
type AdvanceRequest struct {
	Status string `json:"status"`
	Proof  string `json:"proof,omitempty"`
}

// CancelRequest carries the cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// RateRequest fills the caller's rating slot.
type RateRequest struct {
	Score   int    `json:"score"`
	Comment string `json:"comment,omitempty"`
}

// OverrideRequest force-sets an order status (admin recovery path).
type OverrideRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

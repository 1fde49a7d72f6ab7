package dispatch

// EventKind names a real-time event type on the wire.
type EventKind string

const (
	EventNewOrder             EventKind = "newOrder"
	EventOrderUpdate          EventKind = "orderUpdate"
	EventDriverLocationUpdate EventKind = "driverLocationUpdate"
	EventPaymentSuccess       EventKind = "paymentSuccess"
	EventPaymentFailed        EventKind = "paymentFailed"
	EventRefundProcessed      EventKind = "refundProcessed"
	EventDriverStatusChange   EventKind = "driverStatusChange"
	EventApprovalStatusUpdate EventKind = "approvalStatusUpdate"
	EventAccountStatusUpdate  EventKind = "accountStatusUpdate"
)

// Event is one fire-and-forget notification published to a channel.
type Event struct {
	Kind    EventKind      `json:"event"`
	Payload map[string]any `json:"payload"`
}

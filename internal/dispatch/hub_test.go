package dispatch

import (
	"io"
	"log/slog"
	"testing"

	"github.com/fueldrop/fueldrop/internal/domain/model"
)

func newTestHub() *Hub {
	return NewHub(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func TestHubDeliversInPublishOrder(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	sub := hub.Subscribe("customer_5")
	hub.Publish("customer_5", Event{Kind: EventOrderUpdate, Payload: map[string]any{"seq": 1}})
	hub.Publish("customer_5", Event{Kind: EventPaymentSuccess, Payload: map[string]any{"seq": 2}})

	first := <-sub.C
	second := <-sub.C
	if first.Kind != EventOrderUpdate || second.Kind != EventPaymentSuccess {
		t.Fatalf("events out of order: %s then %s", first.Kind, second.Kind)
	}
}

func TestHubChannelsAreIsolated(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	customer := hub.Subscribe("customer_5")
	driver := hub.Subscribe("driver_9")

	hub.Publish("customer_5", Event{Kind: EventOrderUpdate})

	select {
	case <-driver.C:
		t.Fatal("driver channel received a customer event")
	default:
	}
	if event := <-customer.C; event.Kind != EventOrderUpdate {
		t.Fatalf("unexpected event %s", event.Kind)
	}
}

func TestHubFansOutToAllSubscribers(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	first := hub.Subscribe(AdminChannel)
	second := hub.Subscribe(AdminChannel)

	hub.Publish(AdminChannel, Event{Kind: EventNewOrder})

	if e := <-first.C; e.Kind != EventNewOrder {
		t.Fatalf("unexpected event %s", e.Kind)
	}
	if e := <-second.C; e.Kind != EventNewOrder {
		t.Fatalf("unexpected event %s", e.Kind)
	}
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	sub := hub.Subscribe("driver_9")
	for i := 0; i < defaultBufferSize+5; i++ {
		hub.Publish("driver_9", Event{Kind: EventOrderUpdate, Payload: map[string]any{"seq": i}})
	}

	// The buffer holds the oldest events; the overflow was dropped
	// rather than blocking the publisher.
	if got := len(sub.C); got != defaultBufferSize {
		t.Fatalf("expected a full buffer of %d, got %d", defaultBufferSize, got)
	}
	if first := <-sub.C; first.Payload["seq"] != 0 {
		t.Fatalf("expected oldest event first, got %v", first.Payload)
	}
}

func TestHubUnsubscribeClosesStream(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	sub := hub.Subscribe("customer_5")
	hub.Unsubscribe(sub)

	if _, ok := <-sub.C; ok {
		t.Fatal("expected closed channel after unsubscribe")
	}

	// Publishing afterwards must not panic on the removed subscriber.
	hub.Publish("customer_5", Event{Kind: EventOrderUpdate})

	// Unsubscribing twice is a no-op.
	hub.Unsubscribe(sub)
	hub.Unsubscribe(nil)
}

func TestHubCloseTerminatesSubscribers(t *testing.T) {
	hub := newTestHub()

	sub := hub.Subscribe("customer_5")
	hub.Close()

	if _, ok := <-sub.C; ok {
		t.Fatal("expected closed channel after hub close")
	}

	// Operations on a closed hub are safe no-ops.
	hub.Publish("customer_5", Event{Kind: EventOrderUpdate})
	late := hub.Subscribe("customer_5")
	if _, ok := <-late.C; ok {
		t.Fatal("subscription on closed hub should be closed immediately")
	}
	hub.Close()
}

func TestChannelFor(t *testing.T) {
	cases := []struct {
		role   string
		userID int64
		want   string
	}{
		{"customer", 5, "customer_5"},
		{"driver", 9, "driver_9"},
		{"admin", 1, AdminChannel},
	}
	for _, tc := range cases {
		if got := ChannelFor(model.Role(tc.role), tc.userID); got != tc.want {
			t.Errorf("ChannelFor(%s, %d) = %q, want %q", tc.role, tc.userID, got, tc.want)
		}
	}
}

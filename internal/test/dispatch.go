package test

import (
	"sync"

	"github.com/fueldrop/fueldrop/internal/dispatch"
)

// PublishedEvent records one Publish call on the BroadcasterRecorder.
type PublishedEvent struct {
	Channel string
	Event   dispatch.Event
}

// BroadcasterRecorder captures published events for assertions.
type BroadcasterRecorder struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

// Publish records the event.
func (b *BroadcasterRecorder) Publish(channel string, event dispatch.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Events = append(b.Events, PublishedEvent{Channel: channel, Event: event})
}

// Subscribe returns a throwaway subscription; recorded broadcasts are
// inspected through Events, not delivered.
func (b *BroadcasterRecorder) Subscribe(channel string) *dispatch.Subscription {
	return &dispatch.Subscription{Channel: channel, C: make(chan dispatch.Event, 1)}
}

// Unsubscribe is a no-op.
func (b *BroadcasterRecorder) Unsubscribe(*dispatch.Subscription) {}

// Close is a no-op.
func (b *BroadcasterRecorder) Close() {}

// Published returns a snapshot of recorded events.
func (b *BroadcasterRecorder) Published() []PublishedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]PublishedEvent(nil), b.Events...)
}

// OnChannel filters recorded events by channel.
func (b *BroadcasterRecorder) OnChannel(channel string) []dispatch.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var events []dispatch.Event
	for _, p := range b.Events {
		if p.Channel == channel {
			events = append(events, p.Event)
		}
	}
	return events
}

var _ dispatch.Broadcaster = (*BroadcasterRecorder)(nil)

package dispatch

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const defaultBufferSize = 16

// Subscription is one live listener on a channel. Events arrive on C in
// receipt order until Unsubscribe or Close.
type Subscription struct {
	ID      string
	Channel string
	C       chan Event
}

// Hub is the in-memory Broadcaster. Publishing never blocks: when a
// subscriber's buffer is full the event is dropped for that subscriber.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[string]*Subscription
	buffer   int
	closed   bool
	logger   *slog.Logger
}

// NewHub constructs an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		channels: make(map[string]map[string]*Subscription),
		buffer:   defaultBufferSize,
		logger:   logger,
	}
}

// Subscribe registers a new listener on channel.
func (h *Hub) Subscribe(channel string) *Subscription {
	sub := &Subscription{
		ID:      uuid.NewString(),
		Channel: channel,
		C:       make(chan Event, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.C)
		return sub
	}
	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[string]*Subscription)
		h.channels[channel] = subs
	}
	subs[sub.ID] = sub
	return sub
}

// Unsubscribe removes the listener and closes its event stream.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.channels[sub.Channel]
	if !ok {
		return
	}
	if _, ok := subs[sub.ID]; !ok {
		return
	}
	delete(subs, sub.ID)
	if len(subs) == 0 {
		delete(h.channels, sub.Channel)
	}
	close(sub.C)
}

// Publish delivers event to every current subscriber of channel.
func (h *Hub) Publish(channel string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for _, sub := range h.channels[channel] {
		select {
		case sub.C <- event:
		default:
			// Slow subscriber: at-most-once delivery, drop.
			h.logger.Warn("dispatch event dropped",
				slog.String("channel", channel),
				slog.String("event", string(event.Kind)),
			)
		}
	}
}

// Close shuts the hub down and closes all subscriber streams.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for channel, subs := range h.channels {
		for _, sub := range subs {
			close(sub.C)
		}
		delete(h.channels, channel)
	}
}

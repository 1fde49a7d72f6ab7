package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/fueldrop/fueldrop/internal/dispatch"
)

// StreamHandler bridges dispatch channels to Server-Sent Events.
type StreamHandler struct {
	broadcaster dispatch.Broadcaster
}

// NewStreamHandler constructs StreamHandler.
func NewStreamHandler(broadcaster dispatch.Broadcaster) *StreamHandler {
	return &StreamHandler{broadcaster: broadcaster}
}

// Events handles GET /api/events. The connection stays open until the
// client disconnects or the hub shuts down.
func (h *StreamHandler) Events(c *gin.Context) {
	channel := dispatch.ChannelFor(CurrentRole(c), CurrentUserID(c))
	sub := h.broadcaster.Subscribe(channel)
	defer h.broadcaster.Unsubscribe(sub)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent(string(event.Kind), event.Payload)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

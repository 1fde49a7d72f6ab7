package dispatch

import (
	"fmt"

	"github.com/fueldrop/fueldrop/internal/domain/model"
)

// AdminChannel receives broadcasts addressed to every connected admin.
const AdminChannel = "admins"

// ChannelFor derives the per-identity channel name for a role.
func ChannelFor(role model.Role, userID int64) string {
	if role == model.RoleAdmin {
		return AdminChannel
	}
	return fmt.Sprintf("%s_%d", role, userID)
}

// Broadcaster fans events out to the subscribers of a channel. Delivery
// is at-most-once: there is no queuing or replay for disconnected
// subscribers, and a reconnecting client must re-fetch current state
// through the query interface.
type Broadcaster interface {
	Publish(channel string, event Event)
	Subscribe(channel string) *Subscription
	Unsubscribe(sub *Subscription)
	Close()
}

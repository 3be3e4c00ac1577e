// Package realtime delivers chat events to connected websocket clients.
package realtime

import "context"

// Outbound event names.
const (
	EventNewMessage       = "new_message"
	EventMessageSent      = "message_sent"
	EventUserStatusChange = "user_status_change"
	EventUserTyping       = "user_typing"
)

// Inbound event names.
const (
	EventJoinUserRoom = "join_user_room"
	EventUserOnline   = "user_online"
	EventTypingStart  = "typing_start"
	EventTypingStop   = "typing_stop"
)

// Notifier publishes an event to every connection in a room. Delivery is best
// effort; a room with no connections is not an error.
type Notifier interface {
	Publish(ctx context.Context, room, event string, payload any) error
}

// UserRoom is the room every connection of userID joins.
func UserRoom(prefix, userID string) string {
	return prefix + userID
}

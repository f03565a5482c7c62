package websocket

import (
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// Wire event names pushed to connected widgets and agent consoles.
const (
	// EventMessageNew announces a new message in a chat room
	EventMessageNew = "message:new"
	// EventChatStatus announces a chat status change
	EventChatStatus = "chat:status"
	// EventQueuePosition announces a waiting-room position update
	EventQueuePosition = "queue:position"
)

// ChatRoom is the room every participant of a chat joins, visitor
// included.
func ChatRoom(chatID uuid.UUID) string {
	return "chat:" + chatID.String()
}

// ChatCommercialRoom is the agent-only room of a chat. Internal notes
// and system messages go here and never to the visitor room.
func ChatCommercialRoom(chatID uuid.UUID) string {
	return "chat:" + chatID.String() + ":commercial"
}

package chat

import (
	"github.com/atiendo/atiendo/internal/application/appcore"
	domainchat "github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// Result is the single-chat use case result.
type Result = appcore.Result[*domainchat.Chat]

// JoinWaitingRoomResult pairs the created chat with the visitor's
// waiting-room position.
type JoinWaitingRoomResult struct {
	ChatID   uuid.UUID
	Chat     *domainchat.Chat
	Position int
}

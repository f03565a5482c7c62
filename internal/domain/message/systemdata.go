package message

import (
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// System message actions.
const (
	// ActionAssigned records a commercial being assigned to the chat
	ActionAssigned = "assigned"
	// ActionTransferred records the chat moving to another commercial
	ActionTransferred = "transferred"
	// ActionJoined records a user joining the chat
	ActionJoined = "joined"
	// ActionLeft records a user leaving the chat
	ActionLeft = "left"
)

// SystemData is the structured payload of a system message.
type SystemData struct {
	Action     string    `json:"action"                 bson:"action"`
	FromUserID uuid.UUID `json:"from_user_id,omitempty" bson:"from_user_id,omitempty"`
	ToUserID   uuid.UUID `json:"to_user_id,omitempty"   bson:"to_user_id,omitempty"`
	Reason     string    `json:"reason,omitempty"       bson:"reason,omitempty"`
}

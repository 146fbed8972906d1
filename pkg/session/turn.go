package session

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance in a conversation.
type Turn struct {
	Role           Role
	Text           string
	ConversationID string
	At             time.Time
}

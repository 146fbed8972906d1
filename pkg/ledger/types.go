package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record is the durable trace of one completed exchange: the user's message and
// the assistant reply that answered it. Records are append-only.
type Record struct {
	// Identity
	ID             string `json:"id"`              // UUID v4
	ConversationID string `json:"conversation_id"` // Channel the exchange happened in

	// Participant
	PrincipalID string `json:"principal_id"` // Human participant
	DisplayName string `json:"display_name"` // Name used to personalise the prompt
	Username    string `json:"username"`     // Transport handle, may be empty

	// Exchange
	UserText      string `json:"user_text"`
	AssistantText string `json:"assistant_text"`

	// Provider usage
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`

	CreatedAt time.Time `json:"created_at"`
}

// NewRecord creates a record with a fresh UUID and the given creation time.
func NewRecord(conversationID, principalID string, createdAt time.Time) *Record {
	return &Record{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		PrincipalID:    principalID,
		CreatedAt:      createdAt,
	}
}

// GateState is the persisted reply switch for one scope key.
type GateState struct {
	ScopeKey  string    `json:"scope_key"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Query filters records returned by Records. Zero values disable a filter.
type Query struct {
	ConversationID string
	PrincipalID    string
	Since          time.Time
	Until          time.Time

	// Limit caps the number of records. Default: 100
	Limit  int
	Offset int
}

// DefaultQueryLimit is applied when Query.Limit is zero.
const DefaultQueryLimit = 100

// TurnLog is the append-only exchange log.
type TurnLog interface {
	// AppendRecord persists a record. It never updates an existing row.
	AppendRecord(ctx context.Context, record *Record) error

	// Records returns records matching the query, newest first.
	Records(ctx context.Context, query *Query) ([]*Record, error)
}

// GateStore holds the mutable reply-switch rows.
type GateStore interface {
	// GateState returns the stored state for key. The boolean is false when no
	// row exists for key.
	GateState(ctx context.Context, key string) (*GateState, bool, error)

	// PutGateState replaces the row for state.ScopeKey.
	PutGateState(ctx context.Context, state *GateState) error
}

// Store is a complete ledger backend.
type Store interface {
	TurnLog
	GateStore

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

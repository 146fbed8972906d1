package session

import (
	"errors"
	"fmt"
)

// ErrConversationBusy is returned under the reject policy when the
// conversation is already processing an event.
var ErrConversationBusy = errors.New("conversation is busy")

// ErrInvalidEvent is returned for events without a conversation id.
var ErrInvalidEvent = errors.New("event has no conversation id")

// LedgerWriteError reports an exchange that was answered but not recorded.
type LedgerWriteError struct {
	RecordID       string
	ConversationID string
	Cause          error
}

// Error implements the error interface.
func (e *LedgerWriteError) Error() string {
	return fmt.Sprintf("ledger write failed for record %s (conversation %s): %v",
		e.RecordID, e.ConversationID, e.Cause)
}

// Unwrap returns the underlying storage error.
func (e *LedgerWriteError) Unwrap() error {
	return e.Cause
}

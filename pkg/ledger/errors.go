package ledger

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by stores after Close.
var ErrClosed = errors.New("ledger store is closed")

// StorageError represents an error from the storage backend.
type StorageError struct {
	Backend   string // Storage backend type ("sqlite3", "sqlite", "memory")
	Operation string // Operation that failed ("append", "gate_get", "gate_put", ...)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// ValidationError reports a record or query that cannot be stored or run.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate checks the fields every backend requires.
func (r *Record) Validate() error {
	switch {
	case r == nil:
		return &ValidationError{Field: "record", Message: "record cannot be nil"}
	case r.ID == "":
		return &ValidationError{Field: "id", Message: "record id is required"}
	case r.ConversationID == "":
		return &ValidationError{Field: "conversation_id", Message: "conversation id is required"}
	case r.CreatedAt.IsZero():
		return &ValidationError{Field: "created_at", Message: "creation time is required"}
	}
	return nil
}

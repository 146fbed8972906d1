package consent

import "fmt"

// StoreError reports a failed read or write of a reply switch. A failed write
// means the change was not applied.
type StoreError struct {
	Key       string
	Operation string // "query", "toggle" or "set"
	Cause     error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("gate store %s failed for key %q: %v", e.Operation, e.Key, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

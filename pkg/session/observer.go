package session

import (
	"context"
	"time"

	"mercator-hq/relay/pkg/consent"
)

// Observer receives per-exchange signals, typically for metrics. Methods
// must not block.
type Observer interface {
	// EventHandled is called once per handled event.
	EventHandled(outcome Outcome, duration time.Duration)

	// CompletionFinished is called after each provider call. kind is empty on
	// success.
	CompletionFinished(kind FailureKind, latency time.Duration)

	// WindowEvicted reports turns dropped from a window.
	WindowEvicted(turns int)

	// LedgerWriteFailed reports a reply that could not be recorded.
	LedgerWriteFailed()

	// ProcessingChanged reports conversations entering (+1) or leaving (-1)
	// the processing state.
	ProcessingChanged(delta int)
}

// Gate is the reply switch the coordinator consults.
type Gate interface {
	KeyFor(conversationID, principalID string) string
	Query(ctx context.Context, key string) bool
	Toggle(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key string, enabled bool) (bool, error)
}

var _ Gate = (*consent.Gate)(nil)

type nopObserver struct{}

func (nopObserver) EventHandled(Outcome, time.Duration)            {}
func (nopObserver) CompletionFinished(FailureKind, time.Duration) {}
func (nopObserver) WindowEvicted(int)                             {}
func (nopObserver) LedgerWriteFailed()                            {}
func (nopObserver) ProcessingChanged(int)                         {}

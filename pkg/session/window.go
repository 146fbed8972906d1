package session

import (
	"fmt"
	"sync"
)

// DefaultWindowSize is the number of turns kept per conversation.
const DefaultWindowSize = 10

// Window is a bounded, oldest-first sequence of turns. When an append takes
// the length past capacity the two oldest turns are dropped together, so
// user/assistant pairs leave the window as a unit.
type Window struct {
	mu       sync.Mutex
	capacity int
	turns    []Turn
}

// NewWindow returns an empty window holding at most capacity turns. The
// capacity must be a positive even number.
func NewWindow(capacity int) (*Window, error) {
	if err := ValidateWindowSize(capacity); err != nil {
		return nil, err
	}
	return &Window{
		capacity: capacity,
		turns:    make([]Turn, 0, capacity+1),
	}, nil
}

// ValidateWindowSize reports whether n is usable as a window capacity.
func ValidateWindowSize(n int) error {
	if n <= 0 {
		return fmt.Errorf("window size must be positive, got %d", n)
	}
	if n%2 != 0 {
		return fmt.Errorf("window size must be even, got %d", n)
	}
	return nil
}

// Append adds turn at the tail and returns how many turns were evicted
// (0 or 2).
func (w *Window) Append(turn Turn) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.turns = append(w.turns, turn)
	if len(w.turns) <= w.capacity {
		return 0
	}

	// Shift in place; the backing array never grows past capacity+1.
	n := copy(w.turns, w.turns[2:])
	clear(w.turns[n:])
	w.turns = w.turns[:n]
	return 2
}

// Snapshot returns a copy of the turns in order.
func (w *Window) Snapshot() []Turn {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Turn, len(w.turns))
	copy(out, w.turns)
	return out
}

// Len returns the number of turns held.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.turns)
}

// Capacity returns the maximum number of turns.
func (w *Window) Capacity() int {
	return w.capacity
}

// Package consent implements the reply switch that decides whether the relay
// answers automatically. One Gate serves every scope; the scope only changes
// how keys are derived.
package consent

import (
	"context"
	"log/slog"
	"time"

	"mercator-hq/relay/internal/keylock"
	"mercator-hq/relay/pkg/ledger"
)

// Observer is notified about switch changes and store failures.
type Observer interface {
	GateChanged(scope Scope, enabled bool)
	GateStoreFailed(operation string)
}

// Config configures a Gate.
type Config struct {
	// Scope selects key derivation. Default: conversation
	Scope Scope

	// Store persists switch rows. Required.
	Store ledger.GateStore

	// Observer receives change notifications. Optional.
	Observer Observer

	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// Gate tracks whether automated replies are enabled per key. It holds no
// in-memory copy of the switch, so a read always reflects the latest durable
// write. Writes for one key are serialized and keys are independent.
type Gate struct {
	scope    Scope
	store    ledger.GateStore
	observer Observer
	now      func() time.Time
	logger   *slog.Logger

	locks *keylock.Map
}

// New creates a gate backed by cfg.Store.
func New(cfg Config) *Gate {
	if cfg.Scope == "" {
		cfg.Scope = ScopeConversation
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Gate{
		scope:    cfg.Scope,
		store:    cfg.Store,
		observer: cfg.Observer,
		now:      cfg.Now,
		logger:   slog.Default().With("component", "consent.gate", "scope", string(cfg.Scope)),
		locks:    keylock.New(),
	}
}

// Scope returns the deployment's scope.
func (g *Gate) Scope() Scope {
	return g.scope
}

// KeyFor derives the switch key for an event.
func (g *Gate) KeyFor(conversationID, principalID string) string {
	return g.scope.Key(conversationID, principalID)
}

// Query reports whether replies are enabled for key. An unseen key is
// disabled, and so is any key whose state cannot be read. Every call reads
// the store so writes from other processes are observed.
func (g *Gate) Query(ctx context.Context, key string) bool {
	state, found, err := g.store.GateState(ctx, key)
	if err != nil {
		g.fail("query", key, err)
		return false
	}
	if !found {
		return false
	}
	return state.Enabled
}

// Toggle flips the switch for key and returns the new state. The new state is
// durable before Toggle returns. On error nothing changed.
func (g *Gate) Toggle(ctx context.Context, key string) (bool, error) {
	return g.update(ctx, "toggle", key, func(current bool) bool { return !current })
}

// Set stores an explicit state for key and returns it.
func (g *Gate) Set(ctx context.Context, key string, enabled bool) (bool, error) {
	return g.update(ctx, "set", key, func(bool) bool { return enabled })
}

func (g *Gate) update(ctx context.Context, op, key string, next func(bool) bool) (bool, error) {
	unlock, err := g.locks.Lock(ctx, key)
	if err != nil {
		return false, &StoreError{Key: key, Operation: op, Cause: err}
	}
	defer unlock()

	state, found, err := g.store.GateState(ctx, key)
	if err != nil {
		g.fail(op, key, err)
		return false, &StoreError{Key: key, Operation: op, Cause: err}
	}
	current := found && state.Enabled
	enabled := next(current)

	err = g.store.PutGateState(ctx, &ledger.GateState{
		ScopeKey:  key,
		Enabled:   enabled,
		UpdatedAt: g.now(),
	})
	if err != nil {
		g.fail(op, key, err)
		return current, &StoreError{Key: key, Operation: op, Cause: err}
	}

	g.logger.Info("reply switch updated", "key", key, "enabled", enabled, "previous", current)
	if g.observer != nil {
		g.observer.GateChanged(g.scope, enabled)
	}
	return enabled, nil
}

func (g *Gate) fail(op, key string, err error) {
	g.logger.Error("gate store failure", "operation", op, "key", key, "error", err)
	if g.observer != nil {
		g.observer.GateStoreFailed(op)
	}
}

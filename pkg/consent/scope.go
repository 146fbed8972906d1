package consent

import (
	"fmt"
	"strings"
)

// Scope decides which events share one reply switch. Exactly one scope is
// active per deployment.
type Scope string

const (
	// ScopeConversation gives every conversation its own switch.
	ScopeConversation Scope = "conversation"

	// ScopePrincipal gives every human participant one switch across all
	// conversations they take part in.
	ScopePrincipal Scope = "principal"

	// ScopeGlobal uses a single process-wide switch.
	ScopeGlobal Scope = "global"
)

// GlobalKey is the only key produced by ScopeGlobal.
const GlobalKey = "*"

// ParseScope parses a scope name. The empty string selects ScopeConversation.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeConversation:
		return ScopeConversation, nil
	case ScopePrincipal:
		return ScopePrincipal, nil
	case ScopeGlobal, "process":
		return ScopeGlobal, nil
	default:
		return "", fmt.Errorf("unknown gate scope %q (expected conversation, principal or global)", s)
	}
}

// Key derives the switch key for an event. Keys carry the scope as a prefix so
// a conversation id and a principal id with the same value never collide.
// Principal scope falls back to the conversation when the event has no
// principal.
func (s Scope) Key(conversationID, principalID string) string {
	switch s {
	case ScopeGlobal:
		return GlobalKey
	case ScopePrincipal:
		if principalID != "" {
			return "principal:" + principalID
		}
		return "conversation:" + conversationID
	default:
		return "conversation:" + conversationID
	}
}

// String implements fmt.Stringer.
func (s Scope) String() string {
	return string(s)
}

package secrets

import (
	"context"
	"fmt"
	"strings"
)

// Credential resolves one secret on every call, so a provider client using
// it picks up rotated values without a restart. It satisfies
// providers.CredentialSource.
type Credential struct {
	manager *Manager
	ref     string
}

// Credential returns a credential for value. value is either a literal or
// contains ${secret:name} references resolved on each call.
func (m *Manager) Credential(value string) *Credential {
	return &Credential{manager: m, ref: value}
}

// Credential returns the current value.
func (c *Credential) Credential(ctx context.Context) (string, error) {
	if !IsReference(c.ref) {
		return strings.TrimSpace(c.ref), nil
	}
	value, err := c.manager.ResolveReferences(ctx, c.ref)
	if err != nil {
		return "", fmt.Errorf("resolve credential: %w", err)
	}
	return strings.TrimSpace(value), nil
}

package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// refPattern matches ${secret:name} references in configuration values.
var refPattern = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// Manager asks its providers in order and caches the first answer.
type Manager struct {
	providers []SecretProvider
	cache     *Cache
	logger    *slog.Logger
}

// NewManager creates a manager. Providers implementing ChangeNotifier clear
// the manager cache when they observe a rotation.
func NewManager(providers []SecretProvider, cacheConfig CacheConfig) *Manager {
	m := &Manager{
		providers: providers,
		cache:     NewCache(cacheConfig),
		logger:    slog.Default().With("component", "secrets.manager"),
	}
	for _, p := range providers {
		if n, ok := p.(ChangeNotifier); ok {
			n.OnChange(m.cache.Clear)
		}
	}
	return m
}

// GetSecret returns the value from the first supporting provider that has it.
func (m *Manager) GetSecret(ctx context.Context, name string) (string, error) {
	if value, ok := m.cache.Get(name); ok {
		return value, nil
	}

	var errs []error
	for _, p := range m.providers {
		if !p.Supports(name) {
			continue
		}
		value, err := p.GetSecret(ctx, name)
		if err != nil {
			m.logger.Debug("provider could not supply secret",
				"provider", p.Provider(),
				"name", redactName(name),
				"error", err,
			)
			errs = append(errs, err)
			continue
		}
		m.cache.Set(name, value)
		return value, nil
	}

	if len(errs) > 0 {
		return "", fmt.Errorf("failed to get secret %q: %w", name, errors.Join(errs...))
	}
	return "", fmt.Errorf("secret not found: %q (no provider supports it)", name)
}

// ResolveReferences replaces every ${secret:name} in input. Unresolved
// references are left in place and reported together in the error.
func (m *Manager) ResolveReferences(ctx context.Context, input string) (string, error) {
	var failed []string

	output := refPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := refPattern.FindStringSubmatch(match)[1]
		value, err := m.GetSecret(ctx, name)
		if err != nil {
			failed = append(failed, err.Error())
			return match
		}
		return value
	})

	if len(failed) > 0 {
		return output, fmt.Errorf("unresolved secret references: %s", strings.Join(failed, "; "))
	}
	return output, nil
}

// Refresh refreshes every refreshable provider and clears the cache.
func (m *Manager) Refresh(ctx context.Context) error {
	var errs []error
	for _, p := range m.providers {
		if r, ok := p.(RefreshableProvider); ok {
			if err := r.Refresh(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", p.Provider(), err))
			}
		}
	}
	m.cache.Clear()
	return errors.Join(errs...)
}

// ListSecrets returns the union of every provider's secret names.
func (m *Manager) ListSecrets(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var names []string
	for _, p := range m.providers {
		list, err := p.ListSecrets(ctx)
		if err != nil {
			m.logger.Warn("failed to list secrets", "provider", p.Provider(), "error", err)
			continue
		}
		for _, name := range list {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}
	return names, nil
}

// IsReference reports whether s contains a ${secret:name} reference.
func IsReference(s string) bool {
	return refPattern.MatchString(s)
}

func redactName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}

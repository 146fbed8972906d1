package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// DefaultEnvPrefix namespaces secret environment variables.
const DefaultEnvPrefix = "RELAY_SECRET_"

// EnvProvider reads secrets from environment variables. The secret
// "openai-api-key" is read from RELAY_SECRET_OPENAI_API_KEY with the default
// prefix.
type EnvProvider struct {
	Prefix string
}

// NewEnvProvider creates an environment provider with the given prefix.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{Prefix: prefix}
}

// GetSecret reads the variable for name. Empty values count as missing.
func (p *EnvProvider) GetSecret(ctx context.Context, name string) (string, error) {
	envVar := p.envVar(name)
	value := strings.TrimSpace(os.Getenv(envVar))
	if value == "" {
		return "", fmt.Errorf("secret %q not set (env var %s)", name, envVar)
	}
	return value, nil
}

// ListSecrets returns the secret names of every variable carrying the prefix.
func (p *EnvProvider) ListSecrets(ctx context.Context) ([]string, error) {
	var names []string
	for _, kv := range os.Environ() {
		key, _, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, p.Prefix) || key == p.Prefix {
			continue
		}
		names = append(names, strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, p.Prefix), "_", "-")))
	}
	return names, nil
}

// Provider returns "env".
func (p *EnvProvider) Provider() string {
	return "env"
}

// Supports always reports true so the environment works as a fallback.
func (p *EnvProvider) Supports(name string) bool {
	return true
}

func (p *EnvProvider) envVar(name string) string {
	return p.Prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

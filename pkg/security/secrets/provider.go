package secrets

import "context"

// SecretProvider retrieves named secrets from one backend.
type SecretProvider interface {
	// GetSecret returns the secret value. Missing secrets are an error.
	GetSecret(ctx context.Context, name string) (string, error)

	// ListSecrets returns the names this provider can serve, never values.
	ListSecrets(ctx context.Context) ([]string, error)

	// Provider returns the backend name ("env", "file").
	Provider() string

	// Supports reports whether the provider should be asked for name.
	Supports(name string) bool
}

// RefreshableProvider can drop what it has cached and re-read its backend.
type RefreshableProvider interface {
	SecretProvider

	Refresh(ctx context.Context) error
}

// ChangeNotifier is implemented by providers that detect rotation on their
// own. fn is called after the provider has refreshed.
type ChangeNotifier interface {
	OnChange(fn func())
}

package providers

import (
	"context"
	"strings"
)

// Provider sends chat completion requests to one completion service.
//
// Example usage:
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
//
//	resp, err := provider.SendCompletion(ctx, &providers.CompletionRequest{
//	    Model:     "gpt-3.5-turbo",
//	    MaxTokens: 128,
//	    Messages:  []providers.Message{{Role: providers.RoleUser, Content: "Hello!"}},
//	})
type Provider interface {
	// SendCompletion sends exactly one request and returns the normalized
	// response. Failures are returned as the typed errors of this package and
	// are never retried: a retry could bill twice or produce a duplicate reply.
	SendCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// GetName returns the provider's configured name.
	GetName() string

	// IsHealthy reports whether recent requests succeeded.
	IsHealthy() bool

	// GetHealth returns detailed health information.
	GetHealth() ProviderHealth

	// Close releases idle connections.
	Close() error
}

// CredentialSource yields the bearer credential for the next request.
type CredentialSource interface {
	Credential(ctx context.Context) (string, error)
}

// StaticCredential is a fixed credential.
type StaticCredential string

// Credential implements CredentialSource.
func (c StaticCredential) Credential(ctx context.Context) (string, error) {
	return strings.TrimSpace(string(c)), nil
}

// Package providers holds shared test helpers for provider adapters and their
// callers: a mock OpenAI-compatible server and assertion helpers.
package providers

import (
	"errors"
	"testing"
	"time"

	"mercator-hq/relay/pkg/providers"
)

// TestConfig returns a test provider configuration.
func TestConfig(name string) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:                name,
		BaseURL:             "http://localhost:8080",
		APIKey:              "test-key",
		Timeout:             5 * time.Second,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     30 * time.Second,
	}
}

// TestConfigWithURL returns a test config with a specific base URL.
func TestConfigWithURL(name, baseURL string) providers.ProviderConfig {
	config := TestConfig(name)
	config.BaseURL = baseURL
	return config
}

// TestCompletionRequest creates a test completion request.
func TestCompletionRequest(model string, messages ...providers.Message) *providers.CompletionRequest {
	return &providers.CompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: 128,
	}
}

// AssertErrorType fails the test unless err's chain contains an error of
// type T.
func AssertErrorType[T error](t *testing.T, err error) T {
	t.Helper()
	var target T
	if err == nil {
		t.Fatalf("expected %T, got nil", target)
	}
	if !errors.As(err, &target) {
		t.Fatalf("expected %T, got %T: %v", target, err, err)
	}
	return target
}

package secrets

import (
	"context"
	"slices"
	"testing"
)

func TestEnvProvider_GetSecret(t *testing.T) {
	t.Setenv("RELAY_SECRET_OPENAI_API_KEY", " sk-test \n")

	p := NewEnvProvider(DefaultEnvPrefix)
	value, err := p.GetSecret(context.Background(), "openai-api-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "sk-test" {
		t.Errorf("expected 'sk-test', got %q", value)
	}
}

func TestEnvProvider_MissingAndEmpty(t *testing.T) {
	t.Setenv("RELAY_SECRET_EMPTY", "   ")
	p := NewEnvProvider(DefaultEnvPrefix)

	for _, name := range []string{"empty", "never-set"} {
		if _, err := p.GetSecret(context.Background(), name); err == nil {
			t.Errorf("expected error for %q", name)
		}
	}
}

func TestEnvProvider_ListSecrets(t *testing.T) {
	t.Setenv("RELAYTEST_SECRET_TELEGRAM_TOKEN", "x")
	t.Setenv("RELAYTEST_SECRET_OPENAI_API_KEY", "y")

	p := NewEnvProvider("RELAYTEST_SECRET_")
	names, err := p.ListSecrets(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"telegram-token", "openai-api-key"} {
		if !slices.Contains(names, want) {
			t.Errorf("ListSecrets() = %v, missing %q", names, want)
		}
	}
}

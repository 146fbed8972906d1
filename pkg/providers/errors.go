package providers

import (
	"fmt"
	"time"
)

// ProviderError is a non-success response that no narrower type covers, or a
// transport failure before any response arrived (StatusCode 0).
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q returned %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// AuthError means the credential was rejected (401, 403) or could not be
// obtained at all. Cause is set in the second case.
type AuthError struct {
	Provider string
	Message  string
	Cause    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q rejected credentials: %s", e.Provider, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Cause }

// RateLimitError is a 429. RetryAfter is zero when the provider sent no hint.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limited, retry after %s: %s", e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limited: %s", e.Provider, e.Message)
}

// TimeoutError is returned when either the HTTP client timeout or the
// caller's deadline expires first.
type TimeoutError struct {
	Provider string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q timed out after %s", e.Provider, e.Timeout)
}

// ParseError covers undecodable bodies, responses without choices, and
// empty replies. RawResponse holds the body when there was one.
type ParseError struct {
	Provider    string
	RawResponse string
	Cause       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q sent a malformed response: %v", e.Provider, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// ValidationError rejects a request before it is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request field %q: %s", e.Field, e.Message)
}

// ConfigError rejects a provider configuration at construction time.
type ConfigError struct {
	Provider string
	Field    string
	Message  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q: invalid %s: %s", e.Provider, e.Field, e.Message)
}

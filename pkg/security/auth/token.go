package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
)

// ErrInvalidToken is returned when a presented token does not match.
var ErrInvalidToken = errors.New("invalid token")

// ErrMissingToken is returned when a request carries no token.
var ErrMissingToken = errors.New("no token found")

// TokenSource yields the expected token. It is consulted on every request
// so a rotated secret takes effect without a restart.
type TokenSource interface {
	Credential(ctx context.Context) (string, error)
}

// TokenValidator compares presented tokens against a TokenSource.
type TokenValidator struct {
	source TokenSource
}

// NewTokenValidator returns a validator backed by source.
func NewTokenValidator(source TokenSource) *TokenValidator {
	return &TokenValidator{source: source}
}

// Validate reports whether presented matches the expected token. An empty
// expected token never matches.
func (v *TokenValidator) Validate(ctx context.Context, presented string) error {
	expected, err := v.source.Credential(ctx)
	if err != nil {
		return fmt.Errorf("failed to load expected token: %w", err)
	}
	if expected == "" || presented == "" {
		return ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) != 1 {
		return ErrInvalidToken
	}
	return nil
}

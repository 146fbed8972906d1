package auth

import (
	"log/slog"
	"net/http"
	"strings"
)

// TokenSourceLocation says where a token is read from.
type TokenSourceLocation struct {
	Header string // header name
	Scheme string // optional prefix such as "Bearer"
}

// DefaultLocations accepts "Authorization: Bearer <token>" and
// "X-Relay-Token: <token>".
var DefaultLocations = []TokenSourceLocation{
	{Header: "Authorization", Scheme: "Bearer"},
	{Header: "X-Relay-Token"},
}

// Middleware rejects requests without a valid token.
type Middleware struct {
	validator *TokenValidator
	locations []TokenSourceLocation
	logger    *slog.Logger
}

// NewMiddleware returns token middleware. Nil locations means
// DefaultLocations.
func NewMiddleware(validator *TokenValidator, locations []TokenSourceLocation) *Middleware {
	if len(locations) == 0 {
		locations = DefaultLocations
	}
	return &Middleware{
		validator: validator,
		locations: locations,
		logger:    slog.Default().With("component", "auth"),
	}
}

// Handle wraps next.
func (m *Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := m.extract(r)
		if err == nil {
			err = m.validator.Validate(r.Context(), token)
		}
		if err != nil {
			m.logger.WarnContext(r.Context(), "rejected request",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="relay"`)
			http.Error(w, "Missing or invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) extract(r *http.Request) (string, error) {
	for _, loc := range m.locations {
		value := strings.TrimSpace(r.Header.Get(loc.Header))
		if value == "" {
			continue
		}
		if loc.Scheme == "" {
			return value, nil
		}
		scheme, token, ok := strings.Cut(value, " ")
		if ok && strings.EqualFold(scheme, loc.Scheme) {
			return strings.TrimSpace(token), nil
		}
	}
	return "", ErrMissingToken
}

package logging

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Built-in credential patterns.
var defaultPatterns = []struct {
	regex       string
	replacement string
}{
	// OpenAI-style secret keys.
	{`sk-[A-Za-z0-9_\-]{8,}`, "sk-***"},
	// Telegram bot tokens, also inside api.telegram.org/bot<token>/ URLs.
	{`\d{6,12}:[A-Za-z0-9_\-]{30,}`, "***:***"},
	// Authorization headers.
	{`Bearer\s+[A-Za-z0-9\-._~+/]+=*`, "Bearer ***"},
}

// sensitiveKeys are attribute names whose values are always masked.
var sensitiveKeys = []string{
	"api_key", "apikey", "token", "authorization", "secret", "password", "credential",
}

// Redactor masks credentials in log attributes.
type Redactor struct {
	patterns []*redactPattern
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor compiles the built-in patterns plus extra, which are replaced
// with "***".
func NewRedactor(extra []string) (*Redactor, error) {
	r := &Redactor{}
	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, &redactPattern{
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}
	for _, p := range extra {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		r.patterns = append(r.patterns, &redactPattern{regex: re, replacement: "***"})
	}
	return r, nil
}

// RedactString replaces every credential-shaped substring of s.
func (r *Redactor) RedactString(s string) string {
	for _, p := range r.patterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook.
func (r *Redactor) ReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, mask(a.Value.Resolve()))
	}

	switch a.Value.Kind() {
	case slog.KindString:
		a.Value = slog.StringValue(r.RedactString(a.Value.String()))
	case slog.KindAny:
		// Errors from HTTP clients often quote the request URL.
		if err, ok := a.Value.Any().(error); ok {
			a.Value = slog.StringValue(r.RedactString(err.Error()))
		}
	}
	return a
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

func mask(v slog.Value) string {
	if v.Kind() != slog.KindString {
		return "***"
	}
	s := v.String()
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "***"
	default:
		return s[:3] + "***"
	}
}

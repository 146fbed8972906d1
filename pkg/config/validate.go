package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError is a validation error for one configuration field.
type FieldError struct {
	// Field is the dotted path to the field (e.g., "session.window_size").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every FieldError found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Has reports whether field failed validation.
func (e ValidationError) Has(field string) bool {
	return slices.ContainsFunc(e.Errors, func(fe FieldError) bool { return fe.Field == field })
}

// Validate checks the whole configuration and returns a ValidationError
// listing every problem, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateTransport(&cfg.Transport)...)
	errs = append(errs, validateProvider(&cfg.Provider)...)
	errs = append(errs, validateSession(&cfg.Session)...)
	errs = append(errs, validateGate(&cfg.Gate)...)
	errs = append(errs, validatePersona(&cfg.Persona)...)
	errs = append(errs, validateLedger(&cfg.Ledger)...)
	errs = append(errs, validateServer(&cfg.Server, &cfg.Session)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateTransport(cfg *TransportConfig) []FieldError {
	var errs []FieldError

	switch cfg.Kind {
	case TransportTelegram:
		if strings.TrimSpace(cfg.Token) == "" {
			errs = append(errs, FieldError{
				Field:   "transport.token",
				Message: "telegram token is required (set transport.token or TELEGRAM_TOKEN)",
			})
		}
	case TransportHTTP:
	default:
		errs = append(errs, FieldError{
			Field:   "transport.kind",
			Message: fmt.Sprintf("invalid transport %q (must be telegram or http)", cfg.Kind),
		})
	}

	if cfg.PollTimeout < 0 {
		errs = append(errs, FieldError{Field: "transport.poll_timeout", Message: "poll timeout must not be negative"})
	}
	return errs
}

func validateProvider(cfg *ProviderConfig) []FieldError {
	var errs []FieldError

	if u, err := url.Parse(cfg.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "provider.base_url",
			Message: fmt.Sprintf("invalid URL %q (must be http or https with a host)", cfg.BaseURL),
		})
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		errs = append(errs, FieldError{
			Field:   "provider.api_key",
			Message: "API key is required (set provider.api_key or OPENAI_TOKEN)",
		})
	}
	if cfg.Model == "" {
		errs = append(errs, FieldError{Field: "provider.model", Message: "model is required"})
	}
	if cfg.MaxTokens <= 0 {
		errs = append(errs, FieldError{Field: "provider.max_tokens", Message: "max tokens must be positive"})
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{Field: "provider.timeout", Message: "timeout must not be negative"})
	}
	return errs
}

func validateSession(cfg *SessionConfig) []FieldError {
	var errs []FieldError

	if cfg.WindowSize <= 0 || cfg.WindowSize%2 != 0 {
		errs = append(errs, FieldError{
			Field:   "session.window_size",
			Message: fmt.Sprintf("window size must be a positive even number, got %d", cfg.WindowSize),
		})
	}
	if cfg.CompletionTimeout <= 0 {
		errs = append(errs, FieldError{Field: "session.completion_timeout", Message: "completion timeout must be positive"})
	}
	if cfg.BusyPolicy != "queue" && cfg.BusyPolicy != "reject" {
		errs = append(errs, FieldError{
			Field:   "session.busy_policy",
			Message: fmt.Sprintf("invalid busy policy %q (must be queue or reject)", cfg.BusyPolicy),
		})
	}
	return errs
}

func validateGate(cfg *GateConfig) []FieldError {
	switch cfg.Scope {
	case "conversation", "principal", "global", "process":
		return nil
	}
	return []FieldError{{
		Field:   "gate.scope",
		Message: fmt.Sprintf("invalid scope %q (must be conversation, principal or global)", cfg.Scope),
	}}
}

func validatePersona(cfg *PersonaConfig) []FieldError {
	var errs []FieldError
	for i, ex := range cfg.Examples {
		if strings.TrimSpace(ex.User) == "" || strings.TrimSpace(ex.Assistant) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("persona.examples[%d]", i),
				Message: "example needs both user and assistant text",
			})
		}
	}
	if cfg.NoExamples && len(cfg.Examples) > 0 {
		errs = append(errs, FieldError{
			Field:   "persona.no_examples",
			Message: "no_examples conflicts with configured examples",
		})
	}
	return errs
}

func validateLedger(cfg *LedgerConfig) []FieldError {
	var errs []FieldError

	switch cfg.Driver {
	case "sqlite3", "sqlite":
		if cfg.Path == "" {
			errs = append(errs, FieldError{Field: "ledger.path", Message: "path is required"})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "ledger.driver",
			Message: fmt.Sprintf("invalid driver %q (must be sqlite3, sqlite or memory)", cfg.Driver),
		})
	}

	if cfg.MaxOpenConns < 0 {
		errs = append(errs, FieldError{Field: "ledger.max_open_conns", Message: "must not be negative"})
	}
	if cfg.MaxIdleConns < 0 || (cfg.MaxOpenConns > 0 && cfg.MaxIdleConns > cfg.MaxOpenConns) {
		errs = append(errs, FieldError{Field: "ledger.max_idle_conns", Message: "must be between 0 and max_open_conns"})
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, FieldError{Field: "ledger.write_timeout", Message: "write timeout must be positive"})
	}
	if cfg.CheckpointSchedule != "" {
		if _, err := cron.ParseStandard(cfg.CheckpointSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "ledger.checkpoint_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}
	return errs
}

func validateServer(cfg *ServerConfig, session *SessionConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "listen address is required"})
	}
	if cfg.ReadTimeout < 0 || cfg.IdleTimeout < 0 || cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server", Message: "timeouts must not be negative"})
	}
	if cfg.WriteTimeout > 0 && cfg.WriteTimeout <= session.CompletionTimeout {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must exceed session.completion_timeout",
		})
	}
	if cfg.MaxBodyBytes <= 0 {
		errs = append(errs, FieldError{Field: "server.max_body_bytes", Message: "must be positive"})
	}
	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
			errs = append(errs, FieldError{Field: "server.tls", Message: "cert_file and key_file are required when TLS is enabled"})
		}
		if cfg.TLS.MinVersion != "1.2" && cfg.TLS.MinVersion != "1.3" {
			errs = append(errs, FieldError{Field: "server.tls.min_version", Message: "must be 1.2 or 1.3"})
		}
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q (must be debug, info, warn or error)", cfg.Logging.Level),
		})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "path must start with /"})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "endpoint is required when tracing is enabled"})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "sample ratio must be between 0 and 1"})
	}
	return errs
}

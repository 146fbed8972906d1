package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file on top of the defaults and
// validates it. An empty path loads the defaults alone.
func LoadConfig(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration and applies environment
// overrides before validating. The sequence is:
//  1. defaults
//  2. YAML file, if path is not empty
//  3. RELAY_SECTION_FIELD variables
//  4. OPENAI_TOKEN and TELEGRAM_TOKEN for credentials still unset
//  5. persona.links_file
//  6. validation
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := loadLinks(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadStoreConfig loads configuration for offline tools that only open the
// ledger store. Environment overrides apply, but only the ledger and gate
// sections are validated.
func LoadStoreConfig(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	errs := append(validateLedger(&cfg.Ledger), validateGate(&cfg.Gate)...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %w", ValidationError{Errors: errs})
	}
	return cfg, nil
}

func load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

func loadLinks(cfg *Config) error {
	if cfg.Persona.Links != "" || cfg.Persona.LinksFile == "" {
		return nil
	}
	data, err := os.ReadFile(cfg.Persona.LinksFile)
	if err != nil {
		return fmt.Errorf("failed to read persona links file %q: %w", cfg.Persona.LinksFile, err)
	}
	cfg.Persona.Links = strings.TrimSpace(string(data))
	return nil
}

// applyEnvOverrides applies RELAY_SECTION_FIELD environment variables.
// Unparseable numbers and durations are ignored.
func applyEnvOverrides(cfg *Config) {
	// Transport
	setString("RELAY_TRANSPORT_KIND", &cfg.Transport.Kind)
	setString("RELAY_TRANSPORT_TOKEN", &cfg.Transport.Token)
	setDuration("RELAY_TRANSPORT_POLL_TIMEOUT", &cfg.Transport.PollTimeout)
	setString("RELAY_TRANSPORT_UNKNOWN_COMMAND_REPLY", &cfg.Transport.UnknownCommandReply)
	setBool("RELAY_TRANSPORT_DEBUG", &cfg.Transport.Debug)

	// Provider
	setString("RELAY_PROVIDER_BASE_URL", &cfg.Provider.BaseURL)
	setString("RELAY_PROVIDER_API_KEY", &cfg.Provider.APIKey)
	setString("RELAY_PROVIDER_MODEL", &cfg.Provider.Model)
	setInt("RELAY_PROVIDER_MAX_TOKENS", &cfg.Provider.MaxTokens)
	setDuration("RELAY_PROVIDER_TIMEOUT", &cfg.Provider.Timeout)

	// Session
	setInt("RELAY_SESSION_WINDOW_SIZE", &cfg.Session.WindowSize)
	setDuration("RELAY_SESSION_COMPLETION_TIMEOUT", &cfg.Session.CompletionTimeout)
	setString("RELAY_SESSION_BUSY_POLICY", &cfg.Session.BusyPolicy)

	// Gate
	setString("RELAY_GATE_SCOPE", &cfg.Gate.Scope)

	// Ledger
	setString("RELAY_LEDGER_DRIVER", &cfg.Ledger.Driver)
	setString("RELAY_LEDGER_PATH", &cfg.Ledger.Path)
	setBool("RELAY_LEDGER_WAL_MODE", &cfg.Ledger.WALMode)
	setString("RELAY_LEDGER_CHECKPOINT_SCHEDULE", &cfg.Ledger.CheckpointSchedule)

	// Server
	setString("RELAY_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	setString("RELAY_SERVER_WEBHOOK_TOKEN", &cfg.Server.WebhookToken)

	// Secrets
	setString("RELAY_SECRETS_DIR", &cfg.Secrets.Dir)

	// Telemetry
	setString("RELAY_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	setString("RELAY_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	setBool("RELAY_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	setBool("RELAY_TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	setString("RELAY_TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	setFloat("RELAY_TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)

	// Variable names used by earlier deployments of the bot.
	if cfg.Provider.APIKey == "" {
		setString("OPENAI_TOKEN", &cfg.Provider.APIKey)
	}
	if cfg.Transport.Token == "" {
		setString("TELEGRAM_TOKEN", &cfg.Transport.Token)
	}
}

func setString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func setFloat(key string, dst *float64) {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

// SecretResolver replaces ${secret:name} references.
type SecretResolver interface {
	ResolveReferences(ctx context.Context, input string) (string, error)
}

// ResolveSecrets resolves secret references in transport.token, which is read
// once at startup. provider.api_key and server.webhook_token are left as
// references so rotated values are picked up per request, but they are
// checked to resolve now.
func ResolveSecrets(ctx context.Context, cfg *Config, r SecretResolver) error {
	var errs []FieldError

	resolve := func(field string, dst *string, replace bool) {
		if *dst == "" {
			return
		}
		value, err := r.ResolveReferences(ctx, *dst)
		if err != nil {
			errs = append(errs, FieldError{Field: field, Message: err.Error()})
			return
		}
		if replace {
			*dst = value
		}
	}

	resolve("transport.token", &cfg.Transport.Token, true)
	resolve("server.webhook_token", &cfg.Server.WebhookToken, false)
	resolve("provider.api_key", &cfg.Provider.APIKey, false)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

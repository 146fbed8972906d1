package config

import (
	"errors"
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := Defaults()
	cfg.Transport.Token = "123:abc"
	cfg.Provider.APIKey = "sk-test"
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"odd window", func(c *Config) { c.Session.WindowSize = 5 }, "session.window_size"},
		{"negative window", func(c *Config) { c.Session.WindowSize = -2 }, "session.window_size"},
		{"busy policy", func(c *Config) { c.Session.BusyPolicy = "drop" }, "session.busy_policy"},
		{"zero completion timeout", func(c *Config) { c.Session.CompletionTimeout = 0 }, "session.completion_timeout"},
		{"scope", func(c *Config) { c.Gate.Scope = "channel" }, "gate.scope"},
		{"transport kind", func(c *Config) { c.Transport.Kind = "signal" }, "transport.kind"},
		{"telegram token", func(c *Config) { c.Transport.Token = " " }, "transport.token"},
		{"api key", func(c *Config) { c.Provider.APIKey = "" }, "provider.api_key"},
		{"base url scheme", func(c *Config) { c.Provider.BaseURL = "ftp://example.com" }, "provider.base_url"},
		{"base url host", func(c *Config) { c.Provider.BaseURL = "https://" }, "provider.base_url"},
		{"max tokens", func(c *Config) { c.Provider.MaxTokens = 0 }, "provider.max_tokens"},
		{"ledger driver", func(c *Config) { c.Ledger.Driver = "postgres" }, "ledger.driver"},
		{"ledger path", func(c *Config) { c.Ledger.Path = "" }, "ledger.path"},
		{"idle above open", func(c *Config) { c.Ledger.MaxIdleConns = 20 }, "ledger.max_idle_conns"},
		{"checkpoint cron", func(c *Config) { c.Ledger.CheckpointSchedule = "every minute" }, "ledger.checkpoint_schedule"},
		{"write timeout", func(c *Config) { c.Server.WriteTimeout = c.Session.CompletionTimeout }, "server.write_timeout"},
		{"log level", func(c *Config) { c.Telemetry.Logging.Level = "verbose" }, "telemetry.logging.level"},
		{"log format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"metrics path", func(c *Config) { c.Telemetry.Metrics.Path = "metrics" }, "telemetry.metrics.path"},
		{"sample ratio", func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 }, "telemetry.tracing.sample_ratio"},
		{"example", func(c *Config) { c.Persona.Examples = []ExampleConfig{{User: "q"}} }, "persona.examples[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			if !verr.Has(tt.field) {
				t.Errorf("errors = %v, want one for %s", verr.Errors, tt.field)
			}
		})
	}
}

func TestValidate_HTTPTransportNeedsNoToken(t *testing.T) {
	cfg := validConfig()
	cfg.Transport.Kind = TransportHTTP
	cfg.Transport.Token = ""
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate_MemoryLedgerNeedsNoPath(t *testing.T) {
	cfg := validConfig()
	cfg.Ledger.Driver = "memory"
	cfg.Ledger.Path = ""
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidationError_CollectsAll(t *testing.T) {
	cfg := validConfig()
	cfg.Session.WindowSize = 3
	cfg.Gate.Scope = "nope"

	err := Validate(cfg)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v", err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("got %d errors, want 2: %v", len(verr.Errors), verr.Errors)
	}
	if !strings.Contains(err.Error(), "2 errors") {
		t.Errorf("message = %q", err.Error())
	}
}

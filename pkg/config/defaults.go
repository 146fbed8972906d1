package config

import "time"

// Default values for configuration fields.
const (
	// Transport defaults
	DefaultTransportKind       = TransportTelegram
	DefaultPollTimeout         = 60 * time.Second
	DefaultUnknownCommandReply = "I AM ERROR"
	DefaultBusyReply           = "Still working on your last message, please wait."

	// Provider defaults
	DefaultProviderName    = "openai"
	DefaultProviderBaseURL = "https://api.openai.com/v1"
	DefaultModel           = "gpt-3.5-turbo"
	DefaultMaxTokens       = 128
	DefaultProviderTimeout = 60 * time.Second

	// Session defaults
	DefaultWindowSize        = 10
	DefaultCompletionTimeout = 30 * time.Second
	DefaultBusyPolicy        = "queue"
	DefaultFailureReply      = "Sorry, I could not process that."

	// Gate defaults
	DefaultGateScope = "conversation"

	// Ledger defaults
	DefaultLedgerDriver       = "sqlite3"
	DefaultLedgerPath         = "data/relay.db"
	DefaultLedgerMaxOpenConns = 10
	DefaultLedgerMaxIdleConns = 5
	DefaultLedgerWALMode      = true
	DefaultLedgerBusyTimeout  = 5 * time.Second
	DefaultLedgerWriteTimeout = 5 * time.Second
	DefaultCheckpointSchedule = "*/15 * * * *"

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodyBytes    = 64 << 10
	DefaultTLSMinVersion   = "1.3"

	// Secrets defaults
	DefaultSecretsEnvPrefix = "RELAY_SECRET_"
	DefaultSecretsWatch     = true
	DefaultSecretsCacheTTL  = 5 * time.Minute

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "relay"
	DefaultTracingEnabled   = false
	DefaultTracingEndpoint  = "localhost:4317"
	DefaultServiceName      = "relay"
	DefaultSampleRatio      = 1.0
	DefaultTracingInsecure  = true
)

// Transport kinds.
const (
	TransportTelegram = "telegram"
	TransportHTTP     = "http"
)

// Defaults returns a configuration with every default applied, including
// the boolean defaults and the checkpoint schedule a YAML file can switch
// off. Loading decodes the file on top of it.
func Defaults() *Config {
	cfg := &Config{}
	cfg.Ledger.WALMode = DefaultLedgerWALMode
	cfg.Ledger.CheckpointSchedule = DefaultCheckpointSchedule
	cfg.Secrets.Watch = DefaultSecretsWatch
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Tracing.Enabled = DefaultTracingEnabled
	cfg.Telemetry.Tracing.Insecure = DefaultTracingInsecure
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets every zero-valued non-boolean field to its default. It
// is idempotent.
func ApplyDefaults(cfg *Config) {
	// Transport
	if cfg.Transport.Kind == "" {
		cfg.Transport.Kind = DefaultTransportKind
	}
	if cfg.Transport.PollTimeout == 0 {
		cfg.Transport.PollTimeout = DefaultPollTimeout
	}
	if cfg.Transport.UnknownCommandReply == "" {
		cfg.Transport.UnknownCommandReply = DefaultUnknownCommandReply
	}
	if cfg.Transport.BusyReply == "" {
		cfg.Transport.BusyReply = DefaultBusyReply
	}

	// Provider
	if cfg.Provider.Name == "" {
		cfg.Provider.Name = DefaultProviderName
	}
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = DefaultProviderBaseURL
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = DefaultModel
	}
	if cfg.Provider.MaxTokens == 0 {
		cfg.Provider.MaxTokens = DefaultMaxTokens
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = DefaultProviderTimeout
	}

	// Session
	if cfg.Session.WindowSize == 0 {
		cfg.Session.WindowSize = DefaultWindowSize
	}
	if cfg.Session.CompletionTimeout == 0 {
		cfg.Session.CompletionTimeout = DefaultCompletionTimeout
	}
	if cfg.Session.BusyPolicy == "" {
		cfg.Session.BusyPolicy = DefaultBusyPolicy
	}
	if cfg.Session.FailureReply == "" {
		cfg.Session.FailureReply = DefaultFailureReply
	}

	// Gate
	if cfg.Gate.Scope == "" {
		cfg.Gate.Scope = DefaultGateScope
	}

	// Ledger
	if cfg.Ledger.Driver == "" {
		cfg.Ledger.Driver = DefaultLedgerDriver
	}
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = DefaultLedgerPath
	}
	if cfg.Ledger.MaxOpenConns == 0 {
		cfg.Ledger.MaxOpenConns = DefaultLedgerMaxOpenConns
	}
	if cfg.Ledger.MaxIdleConns == 0 {
		cfg.Ledger.MaxIdleConns = DefaultLedgerMaxIdleConns
	}
	if cfg.Ledger.BusyTimeout == 0 {
		cfg.Ledger.BusyTimeout = DefaultLedgerBusyTimeout
	}
	if cfg.Ledger.WriteTimeout == 0 {
		cfg.Ledger.WriteTimeout = DefaultLedgerWriteTimeout
	}

	// Server
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.TLS.MinVersion == "" {
		cfg.Server.TLS.MinVersion = DefaultTLSMinVersion
	}

	// Secrets
	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}
	if cfg.Secrets.CacheTTL == 0 {
		cfg.Secrets.CacheTTL = DefaultSecretsCacheTTL
	}

	// Telemetry
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultServiceName
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultSampleRatio
	}
}

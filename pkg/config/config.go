package config

import "time"

// Config is the root configuration for the relay.
type Config struct {
	// Transport selects and configures the chat platform the relay listens on.
	Transport TransportConfig `yaml:"transport"`

	// Provider configures the OpenAI-compatible completion service.
	Provider ProviderConfig `yaml:"provider"`

	// Session configures per-conversation context windows and processing.
	Session SessionConfig `yaml:"session"`

	// Gate configures the reply switch.
	Gate GateConfig `yaml:"gate"`

	// Persona configures the system directive and worked examples.
	Persona PersonaConfig `yaml:"persona"`

	// Ledger configures the durable store for the turn log and gate state.
	Ledger LedgerConfig `yaml:"ledger"`

	// Server configures the HTTP server for health, metrics and the webhook.
	Server ServerConfig `yaml:"server"`

	// Secrets configures where ${secret:name} references are resolved.
	Secrets SecretsConfig `yaml:"secrets"`

	// Telemetry configures logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// TransportConfig configures the inbound chat transport.
type TransportConfig struct {
	// Kind is "telegram" or "http". With "http" only the webhook endpoint
	// receives events.
	// Default: "telegram"
	Kind string `yaml:"kind"`

	// Token is the Telegram bot token. Falls back to TELEGRAM_TOKEN.
	// Required when Kind is "telegram".
	Token string `yaml:"token"`

	// PollTimeout is the long-poll timeout for getUpdates.
	// Default: 60s
	PollTimeout time.Duration `yaml:"poll_timeout"`

	// UnknownCommandReply answers /start and unrecognized commands.
	// Default: "I AM ERROR"
	UnknownCommandReply string `yaml:"unknown_command_reply"`

	// BusyReply answers a message rejected under the reject busy policy.
	// Default: "Still working on your last message, please wait."
	BusyReply string `yaml:"busy_reply"`

	// Debug enables the Telegram client's request logging.
	Debug bool `yaml:"debug"`
}

// ProviderConfig configures the completion provider.
type ProviderConfig struct {
	// Name labels the provider in logs and metrics.
	// Default: "openai"
	Name string `yaml:"name"`

	// BaseURL is the API root; "/chat/completions" is appended.
	// Default: "https://api.openai.com/v1"
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer credential, a literal or a ${secret:name}
	// reference resolved per request. Falls back to OPENAI_TOKEN.
	APIKey string `yaml:"api_key"`

	// Model is the model identifier.
	// Default: "gpt-3.5-turbo"
	Model string `yaml:"model"`

	// MaxTokens bounds the reply length.
	// Default: 128
	MaxTokens int `yaml:"max_tokens"`

	// Timeout is the HTTP client timeout. The per-exchange deadline is
	// session.completion_timeout.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`
}

// SessionConfig configures the session coordinator.
type SessionConfig struct {
	// WindowSize is the per-conversation turn capacity. Must be even.
	// Default: 10
	WindowSize int `yaml:"window_size"`

	// CompletionTimeout bounds one completion call.
	// Default: 30s
	CompletionTimeout time.Duration `yaml:"completion_timeout"`

	// BusyPolicy is "queue" or "reject".
	// Default: "queue"
	BusyPolicy string `yaml:"busy_policy"`

	// FailureReply is sent when the completion fails.
	// Default: "Sorry, I could not process that."
	FailureReply string `yaml:"failure_reply"`
}

// GateConfig configures the reply switch.
type GateConfig struct {
	// Scope is "conversation", "principal" or "global".
	// Default: "conversation"
	Scope string `yaml:"scope"`
}

// PersonaConfig configures prompt assembly.
type PersonaConfig struct {
	// Directive is a template; {{.Name}} is the sender's display name.
	// Default: "You are a bot designed to answer questions for {{.Name}}"
	Directive string `yaml:"directive"`

	// Examples replace the built-in worked example.
	Examples []ExampleConfig `yaml:"examples"`

	// NoExamples disables worked examples entirely.
	NoExamples bool `yaml:"no_examples"`

	// Links is a reference-link catalog appended verbatim to the directive.
	Links string `yaml:"links"`

	// LinksFile is read into Links when Links is empty.
	LinksFile string `yaml:"links_file"`
}

// ExampleConfig is one worked example exchange.
type ExampleConfig struct {
	User      string `yaml:"user"`
	Assistant string `yaml:"assistant"`
}

// LedgerConfig configures the durable store.
type LedgerConfig struct {
	// Driver is "sqlite3" (cgo), "sqlite" (pure Go) or "memory".
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// Path is the database file.
	// Default: "data/relay.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the connection pool size.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the idle connection limit.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// WriteTimeout bounds one turn log append.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// CheckpointSchedule is a cron expression for WAL checkpoints. Empty
	// disables scheduled checkpoints.
	// Default: "*/15 * * * *"
	CheckpointSchedule string `yaml:"checkpoint_schedule"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// ListenAddress is "host:port".
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout bounds reading a request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing a response. It must exceed
	// session.completion_timeout for the webhook to answer.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout bounds keep-alive connections.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes limits webhook request bodies.
	// Default: 65536
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// WebhookToken, when set, must be presented as a bearer token on
	// webhook requests.
	WebhookToken string `yaml:"webhook_token"`

	// TLS serves the HTTP endpoints over TLS.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig configures server TLS. Certificate files are reloaded when
// they change on disk.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// MinVersion is "1.2" or "1.3".
	// Default: "1.3"
	MinVersion string `yaml:"min_version"`
}

// SecretsConfig configures secret resolution.
type SecretsConfig struct {
	// EnvPrefix namespaces secret environment variables.
	// Default: "RELAY_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`

	// Dir is a directory of secret files. Optional.
	Dir string `yaml:"dir"`

	// Watch reloads secret files when they change.
	// Default: true
	Watch bool `yaml:"watch"`

	// CacheTTL is how long resolved secrets are cached.
	// Default: 5m
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// TelemetryConfig configures observability.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is json or text.
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource adds file:line to records.
	AddSource bool `yaml:"add_source"`

	// RedactPatterns are extra regular expressions masked in log values.
	RedactPatterns []string `yaml:"redact_patterns"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled exposes metrics.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the scrape path.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "relay"
	Namespace string `yaml:"namespace"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// Enabled exports spans over OTLP/gRPC.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the collector's host:port.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is reported as service.name.
	// Default: "relay"
	ServiceName string `yaml:"service_name"`

	// SampleRatio is the fraction of root spans sampled, 0 to 1.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Insecure disables TLS to the collector.
	// Default: true
	Insecure bool `yaml:"insecure"`
}

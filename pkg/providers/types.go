package providers

import "time"

// Message is one role/content pair of a chat prompt.
type Message struct {
	// Role identifies the message sender (system, user, assistant)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`

	// Name is an optional name for the message sender
	Name string `json:"name,omitempty"`
}

// TokenUsage tracks token consumption for a request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionRequest is a chat completion request.
type CompletionRequest struct {
	// Model is the model identifier (e.g., "gpt-3.5-turbo")
	Model string `json:"model"`

	// Messages is the ordered prompt
	Messages []Message `json:"messages"`

	// MaxTokens bounds the generated output
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness; zero leaves the provider default
	Temperature float64 `json:"temperature,omitempty"`

	// User is an optional end-user identifier for abuse monitoring
	User string `json:"user,omitempty"`
}

// CompletionResponse is a normalized completion response.
type CompletionResponse struct {
	ID           string     `json:"id"`
	Model        string     `json:"model"`
	Content      string     `json:"content"`
	FinishReason string     `json:"finish_reason"`
	Usage        TokenUsage `json:"usage"`
	Created      int64      `json:"created"`
}

// ProviderHealth tracks the health status of a provider, derived from the
// outcome of real requests.
type ProviderHealth struct {
	IsHealthy             bool
	LastCheck             time.Time
	LastError             error
	ConsecutiveFailures   int
	LastSuccessfulRequest time.Time
	TotalRequests         int64
	FailedRequests        int64
}

// ProviderConfig contains configuration for a provider instance.
type ProviderConfig struct {
	// Name is the provider identifier used in logs and errors (e.g., "openai")
	Name string

	// BaseURL is the API endpoint base URL
	BaseURL string

	// APIKey is a static credential. Ignored when Credentials is set.
	APIKey string

	// Credentials supplies the bearer credential per request, so rotated
	// secrets are picked up without a restart.
	Credentials CredentialSource

	// Timeout is the HTTP client timeout
	Timeout time.Duration

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Finish reason constants
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonContentFilter = "content_filter"
)

package openai

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mercator-hq/relay/pkg/providers"
)

// DefaultBaseURL is the public OpenAI API.
const DefaultBaseURL = "https://api.openai.com/v1"

// Provider is a client for OpenAI-compatible chat completion endpoints.
type Provider struct {
	*providers.HTTPProvider

	endpoint string
	logger   *slog.Logger
}

// NewProvider validates config, fills defaults and returns a provider.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		config.Name = "openai"
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(config.BaseURL, "http://") && !strings.HasPrefix(config.BaseURL, "https://") {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "base_url",
			Message:  "must start with http:// or https://",
		}
	}
	if config.APIKey == "" && config.Credentials == nil {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required",
		}
	}

	// Default settings
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = 90 * time.Second
	}

	p := &Provider{
		HTTPProvider: providers.NewHTTPProvider(config),
		endpoint:     strings.TrimRight(config.BaseURL, "/") + "/chat/completions",
		logger:       slog.Default().With("component", "providers.openai", "provider", config.Name),
	}

	p.logger.Info("OpenAI provider initialized",
		"base_url", config.BaseURL,
		"timeout", config.Timeout,
	)

	return p, nil
}

// SendCompletion sends one chat completion request.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	apiKey, err := p.credential(ctx)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if apiKey != "" {
		headers["Authorization"] = "Bearer " + apiKey
	}

	var chat chatResponse
	start := time.Now()
	err = p.DoJSONRequest(ctx, http.MethodPost, p.endpoint, newChatRequest(req), &chat, headers)
	if err != nil {
		return nil, err
	}

	resp, err := chat.completion()
	if err != nil {
		return nil, &providers.ParseError{
			Provider: p.GetName(),
			Cause:    err,
		}
	}

	p.logger.Debug("completion received",
		"model", resp.Model,
		"finish_reason", resp.FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"latency", time.Since(start),
	)

	return resp, nil
}

func (p *Provider) credential(ctx context.Context) (string, error) {
	cfg := p.GetConfig()
	if cfg.Credentials == nil {
		return cfg.APIKey, nil
	}
	key, err := cfg.Credentials.Credential(ctx)
	if err != nil {
		return "", &providers.AuthError{
			Provider: cfg.Name,
			Message:  "credential unavailable",
			Cause:    err,
		}
	}
	if key == "" {
		return "", &providers.AuthError{Provider: cfg.Name, Message: "credential is empty"}
	}
	return key, nil
}

// validateRequest rejects requests that cannot succeed.
func validateRequest(req *providers.CompletionRequest) error {
	if req == nil {
		return &providers.ValidationError{Field: "request", Message: "request cannot be nil"}
	}
	if req.Model == "" {
		return &providers.ValidationError{Field: "model", Message: "model is required"}
	}
	if len(req.Messages) == 0 {
		return &providers.ValidationError{Field: "messages", Message: "at least one message is required"}
	}
	if req.MaxTokens < 0 {
		return &providers.ValidationError{Field: "max_tokens", Message: "must be non-negative"}
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case providers.RoleSystem, providers.RoleUser, providers.RoleAssistant:
		default:
			return &providers.ValidationError{Field: "messages.role", Message: "unsupported role " + msg.Role}
		}
	}
	return nil
}

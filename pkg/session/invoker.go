package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mercator-hq/relay/pkg/providers"
)

// FailureKind classifies a failed completion.
type FailureKind string

const (
	FailureTimeout        FailureKind = "timeout"
	FailureRateLimited    FailureKind = "rate_limited"
	FailureAuthentication FailureKind = "authentication"
	FailureMalformed      FailureKind = "malformed"
	FailureUnavailable    FailureKind = "unavailable"
)

// ProviderFailure is a completion that produced no usable reply.
type ProviderFailure struct {
	Kind  FailureKind
	Cause error
}

// Error implements the error interface.
func (e *ProviderFailure) Error() string {
	return fmt.Sprintf("completion failed (%s): %v", e.Kind, e.Cause)
}

// Unwrap returns the underlying provider error.
func (e *ProviderFailure) Unwrap() error {
	return e.Cause
}

// Completion is a successful provider reply.
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Latency          time.Duration
}

// Completer is the provider call the invoker wraps.
type Completer interface {
	SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error)
}

// InvokerConfig bounds each completion.
type InvokerConfig struct {
	// Model is sent with every request.
	Model string

	// MaxTokens bounds the reply length. Default: 128
	MaxTokens int

	// Timeout is the deadline for one completion. Default: 30s
	Timeout time.Duration
}

// Default completion bounds.
const (
	DefaultModel             = "gpt-3.5-turbo"
	DefaultMaxTokens         = 128
	DefaultCompletionTimeout = 30 * time.Second
)

// Invoker sends one prompt to the provider under a deadline and classifies
// failures. It never retries and does not log prompt or reply content.
type Invoker struct {
	completer Completer
	cfg       InvokerConfig
}

// NewInvoker wraps completer.
func NewInvoker(completer Completer, cfg InvokerConfig) *Invoker {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCompletionTimeout
	}
	return &Invoker{completer: completer, cfg: cfg}
}

// Complete sends messages and returns the reply text. Any failure is a
// *ProviderFailure.
func (i *Invoker) Complete(ctx context.Context, messages []providers.Message) (*Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, i.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := i.completer.SendCompletion(ctx, &providers.CompletionRequest{
		Model:     i.cfg.Model,
		Messages:  messages,
		MaxTokens: i.cfg.MaxTokens,
	})
	latency := time.Since(start)

	if err != nil {
		return nil, &ProviderFailure{Kind: classify(ctx, err), Cause: err}
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, &ProviderFailure{Kind: FailureMalformed, Cause: errors.New("empty reply")}
	}

	model := resp.Model
	if model == "" {
		model = i.cfg.Model
	}
	return &Completion{
		Text:             resp.Content,
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		Latency:          latency,
	}, nil
}

// classify maps provider errors to failure kinds.
func classify(ctx context.Context, err error) FailureKind {
	var (
		timeoutErr    *providers.TimeoutError
		rateErr       *providers.RateLimitError
		authErr       *providers.AuthError
		parseErr      *providers.ParseError
		validationErr *providers.ValidationError
		providerErr   *providers.ProviderError
	)

	switch {
	case errors.As(err, &timeoutErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(ctx.Err(), context.DeadlineExceeded):
		return FailureTimeout
	case errors.As(err, &rateErr):
		return FailureRateLimited
	case errors.As(err, &authErr):
		return FailureAuthentication
	case errors.As(err, &parseErr), errors.As(err, &validationErr):
		return FailureMalformed
	case errors.As(err, &providerErr) && providerErr.StatusCode == http.StatusBadRequest:
		return FailureMalformed
	default:
		return FailureUnavailable
	}
}

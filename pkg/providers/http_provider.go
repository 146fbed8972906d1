package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// maxErrorBody caps how much of an error response is kept in error messages.
const maxErrorBody = 4 << 10

// HTTPProvider is the base implementation for HTTP-based provider adapters.
// It provides connection pooling, timeout handling and failure
// classification. It sends every request exactly once.
type HTTPProvider struct {
	// config contains the provider configuration
	config ProviderConfig

	// client is the HTTP client with connection pooling
	client *http.Client

	// health tracks the provider's health status
	health ProviderHealth

	// healthMu protects concurrent access to health status
	healthMu sync.RWMutex

	logger *slog.Logger
}

// NewHTTPProvider creates a new base HTTP provider with connection pooling.
func NewHTTPProvider(config ProviderConfig) *HTTPProvider {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPProvider{
		config: config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		health: ProviderHealth{
			IsHealthy:             true, // Start optimistic
			LastCheck:             time.Now(),
			LastSuccessfulRequest: time.Now(),
		},
		logger: slog.Default().With("component", "providers.http", "provider", config.Name),
	}
}

// GetName returns the provider's configured name.
func (p *HTTPProvider) GetName() string {
	return p.config.Name
}

// GetConfig returns the provider's configuration.
func (p *HTTPProvider) GetConfig() ProviderConfig {
	return p.config
}

// IsHealthy returns the current health status.
func (p *HTTPProvider) IsHealthy() bool {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health.IsHealthy
}

// GetHealth returns detailed health information.
func (p *HTTPProvider) GetHealth() ProviderHealth {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health
}

// record updates request counters and health after one request.
func (p *HTTPProvider) record(err error) {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()

	p.health.TotalRequests++
	p.health.LastCheck = time.Now()

	if err == nil {
		p.health.IsHealthy = true
		p.health.ConsecutiveFailures = 0
		p.health.LastError = nil
		p.health.LastSuccessfulRequest = time.Now()
		return
	}

	p.health.FailedRequests++
	p.health.ConsecutiveFailures++
	p.health.LastError = err

	// Mark unhealthy after 3 consecutive failures (circuit breaker)
	if p.health.ConsecutiveFailures >= 3 && p.health.IsHealthy {
		p.health.IsHealthy = false
		p.logger.Warn("provider marked unhealthy",
			"consecutive_failures", p.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

// DoRequest performs one HTTP request and classifies non-2xx responses into
// typed errors. The caller must close the response body on success.
func (p *HTTPProvider) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	resp, err := p.doRequest(ctx, method, url, body, headers)
	p.record(err)
	return resp, err
}

func (p *HTTPProvider) doRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	p.logger.Debug("sending request to provider", "method", method, "url", url)

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			timeout := p.config.Timeout
			if deadline, ok := ctx.Deadline(); ok {
				timeout = time.Until(deadline)
				if timeout < 0 {
					timeout = 0
				}
			}
			return nil, &TimeoutError{Provider: p.config.Name, Timeout: timeout}
		}
		return nil, &ProviderError{
			Provider: p.config.Name,
			Message:  "request failed",
			Cause:    err,
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &AuthError{
			Provider: p.config.Name,
			Message:  string(errorBody),
		}

	case http.StatusTooManyRequests:
		return nil, &RateLimitError{
			Provider:   p.config.Name,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    string(errorBody),
		}

	default:
		return nil, &ProviderError{
			Provider:   p.config.Name,
			StatusCode: resp.StatusCode,
			Message:    string(errorBody),
		}
	}
}

// isTimeout reports whether err is a client-side timeout.
func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// DoJSONRequest performs a JSON request and decodes the response.
func (p *HTTPProvider) DoJSONRequest(ctx context.Context, method, url string, reqBody any, respBody any, headers map[string]string) error {
	var bodyBytes []byte
	if reqBody != nil {
		var err error
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := p.DoRequest(ctx, method, url, bodyBytes, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return &TimeoutError{Provider: p.config.Name, Timeout: p.config.Timeout}
		}
		return &ParseError{
			Provider: p.config.Name,
			Cause:    fmt.Errorf("failed to read response: %w", err),
		}
	}

	if respBody != nil {
		if err := json.Unmarshal(responseBytes, respBody); err != nil {
			raw := responseBytes
			if len(raw) > maxErrorBody {
				raw = raw[:maxErrorBody]
			}
			return &ParseError{
				Provider:    p.config.Name,
				RawResponse: string(raw),
				Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
			}
		}
	}

	return nil
}

// Close closes idle connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	p.logger.Info("provider closed")
	return nil
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}

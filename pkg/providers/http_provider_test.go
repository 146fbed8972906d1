package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestHTTPProvider(url string, timeout time.Duration) *HTTPProvider {
	return NewHTTPProvider(ProviderConfig{
		Name:    "test-provider",
		BaseURL: url,
		Timeout: timeout,
	})
}

func TestHTTPProvider_SingleAttempt(t *testing.T) {
	statuses := []int{
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusBadRequest,
	}

	for _, status := range statuses {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"error": "failure"}`))
			}))
			defer server.Close()

			p := newTestHTTPProvider(server.URL, 5*time.Second)
			_, err := p.DoRequest(context.Background(), http.MethodPost, server.URL, []byte(`{}`), nil)

			var providerErr *ProviderError
			if !errors.As(err, &providerErr) {
				t.Fatalf("expected ProviderError, got %T: %v", err, err)
			}
			if providerErr.StatusCode != status {
				t.Errorf("StatusCode = %d, want %d", providerErr.StatusCode, status)
			}
			if n := attempts.Load(); n != 1 {
				t.Errorf("server saw %d attempts, want exactly 1", n)
			}
		})
	}
}

func TestHTTPProvider_Classification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		headers map[string]string
		check   func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				var authErr *AuthError
				if !errors.As(err, &authErr) {
					t.Errorf("expected AuthError, got %T", err)
				}
			},
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				var authErr *AuthError
				if !errors.As(err, &authErr) {
					t.Errorf("expected AuthError, got %T", err)
				}
			},
		},
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			headers: map[string]string{"Retry-After": "7"},
			check: func(t *testing.T, err error) {
				var rateErr *RateLimitError
				if !errors.As(err, &rateErr) {
					t.Fatalf("expected RateLimitError, got %T", err)
				}
				if rateErr.RetryAfter != 7*time.Second {
					t.Errorf("RetryAfter = %v, want 7s", rateErr.RetryAfter)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			p := newTestHTTPProvider(server.URL, 5*time.Second)
			_, err := p.DoRequest(context.Background(), http.MethodGet, server.URL, nil, nil)
			tt.check(t, err)
		})
	}
}

func TestHTTPProvider_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	p := newTestHTTPProvider(server.URL, 10*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.DoRequest(ctx, http.MethodPost, server.URL, []byte(`{}`), nil)

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %T: %v", err, err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("request took %v, deadline not honoured", elapsed)
	}
}

func TestHTTPProvider_ClientTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	p := newTestHTTPProvider(server.URL, 50*time.Millisecond)
	_, err := p.DoRequest(context.Background(), http.MethodGet, server.URL, nil, nil)

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %T: %v", err, err)
	}
}

func TestHTTPProvider_DoJSONRequestMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": [`))
	}))
	defer server.Close()

	p := newTestHTTPProvider(server.URL, 5*time.Second)

	var out map[string]any
	err := p.DoJSONRequest(context.Background(), http.MethodPost, server.URL, map[string]string{"a": "b"}, &out, nil)

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
	if parseErr.RawResponse != `{"choices": [` {
		t.Errorf("RawResponse = %q", parseErr.RawResponse)
	}
}

func TestHTTPProvider_HealthTracking(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := newTestHTTPProvider(server.URL, 5*time.Second)
	ctx := context.Background()

	for range 3 {
		_, _ = p.DoRequest(ctx, http.MethodGet, server.URL, nil, nil)
	}
	if p.IsHealthy() {
		t.Error("expected provider to be unhealthy after 3 consecutive failures")
	}

	fail.Store(false)
	resp, err := p.DoRequest(ctx, http.MethodGet, server.URL, nil, nil)
	if err != nil {
		t.Fatalf("DoRequest() error = %v", err)
	}
	resp.Body.Close()

	health := p.GetHealth()
	if !health.IsHealthy || health.ConsecutiveFailures != 0 {
		t.Errorf("expected recovery, got %+v", health)
	}
	if health.TotalRequests != 4 || health.FailedRequests != 3 {
		t.Errorf("counters = %d/%d, want 4/3", health.TotalRequests, health.FailedRequests)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("empty header = %v, want 0", got)
	}
	if got := parseRetryAfter("12"); got != 12*time.Second {
		t.Errorf("seconds = %v, want 12s", got)
	}
	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 || got > time.Minute {
		t.Errorf("http date = %v, want within (0, 1m]", got)
	}
}

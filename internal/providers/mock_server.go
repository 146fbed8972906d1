package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockServer is a mock OpenAI-compatible HTTP server for tests.
type MockServer struct {
	server       *httptest.Server
	responses    map[string]MockResponse
	requestCount int
	requests     []RecordedRequest
	mu           sync.Mutex
}

// MockResponse defines a mock response configuration.
type MockResponse struct {
	StatusCode int
	Body       any
	Delay      time.Duration
	Headers    map[string]string
}

// RecordedRequest is a request the mock server received.
type RecordedRequest struct {
	Method  string
	Path    string
	Headers http.Header
	Body    []byte
}

// NewMockServer creates a new mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{
		responses: make(map[string]MockResponse),
	}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the mock server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close closes the mock server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse sets a mock response for a specific endpoint.
func (ms *MockServer) SetResponse(path string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.responses[path] = response
}

// GetRequestCount returns the number of requests received.
func (ms *MockServer) GetRequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.requestCount
}

// LastRequest returns the most recent request, or false if none arrived.
func (ms *MockServer) LastRequest() (RecordedRequest, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if len(ms.requests) == 0 {
		return RecordedRequest{}, false
	}
	return ms.requests[len(ms.requests)-1], true
}

// DecodeLastRequest unmarshals the last request body into v.
func (ms *MockServer) DecodeLastRequest(v any) error {
	req, ok := ms.LastRequest()
	if !ok {
		return fmt.Errorf("no request received")
	}
	return json.Unmarshal(req.Body, v)
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	ms.mu.Lock()
	ms.requestCount++
	ms.requests = append(ms.requests, RecordedRequest{
		Method:  r.Method,
		Path:    r.URL.Path,
		Headers: r.Header.Clone(),
		Body:    body,
	})
	response, ok := ms.responses[r.URL.Path]
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	// Delay, but give up as soon as the client does.
	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(response.StatusCode)

	if response.Body != nil {
		switch v := response.Body.(type) {
		case string:
			_, _ = w.Write([]byte(v))
		case []byte:
			_, _ = w.Write(v)
		default:
			_ = json.NewEncoder(w).Encode(response.Body)
		}
	}
}

// MockOpenAIResponse creates a mock OpenAI chat completion response.
func MockOpenAIResponse(content string, model string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     10,
			"completion_tokens": 20,
			"total_tokens":      30,
		},
	}
}

// MockErrorResponse creates a mock error response.
func MockErrorResponse(statusCode int, message string) MockResponse {
	return MockResponse{
		StatusCode: statusCode,
		Body: map[string]any{
			"error": map[string]any{
				"message": message,
				"type":    "invalid_request_error",
				"code":    statusCode,
			},
		},
	}
}

// MockAuthError creates a 401 authentication error response.
func MockAuthError() MockResponse {
	return MockErrorResponse(http.StatusUnauthorized, "Invalid API key")
}

// MockRateLimitError creates a 429 rate limit error response.
func MockRateLimitError(retryAfter int) MockResponse {
	response := MockErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded")
	response.Headers = map[string]string{
		"Retry-After": fmt.Sprintf("%d", retryAfter),
	}
	return response
}

// MockTimeoutError creates a slow response to simulate a timeout.
func MockTimeoutError(delay time.Duration) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       MockOpenAIResponse("too late", "gpt-3.5-turbo"),
		Delay:      delay,
	}
}

// MockServerError creates a 500 internal server error response.
func MockServerError() MockResponse {
	return MockErrorResponse(http.StatusInternalServerError, "Internal server error")
}

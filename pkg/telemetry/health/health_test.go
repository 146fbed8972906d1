package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubProvider struct{ healthy bool }

func (p stubProvider) GetName() string { return "stub" }
func (p stubProvider) IsHealthy() bool { return p.healthy }

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCheckReadiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
		wantFailed string
	}{
		{
			name:       "no checks",
			wantStatus: StatusReady,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"ledger":   PingCheck(pingFunc(func(context.Context) error { return nil })),
				"provider": ProviderCheck(stubProvider{healthy: true}),
			},
			wantStatus: StatusReady,
		},
		{
			name: "ledger down",
			checks: map[string]CheckFunc{
				"ledger":   PingCheck(pingFunc(func(context.Context) error { return errors.New("database is locked") })),
				"provider": ProviderCheck(stubProvider{healthy: true}),
			},
			wantStatus: StatusDegraded,
			wantFailed: "ledger",
		},
		{
			name: "provider failing",
			checks: map[string]CheckFunc{
				"provider": ProviderCheck(stubProvider{}),
			},
			wantStatus: StatusDegraded,
			wantFailed: "provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second)
			for name, check := range tt.checks {
				c.RegisterCheck(name, check)
			}

			got := c.CheckReadiness(context.Background())
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", got.Status, tt.wantStatus)
			}
			if len(got.Checks) != len(tt.checks) {
				t.Errorf("got %d results, want %d", len(got.Checks), len(tt.checks))
			}
			if tt.wantFailed != "" && got.Checks[tt.wantFailed].Status != StatusUnhealthy {
				t.Errorf("check %q = %+v, want unhealthy", tt.wantFailed, got.Checks[tt.wantFailed])
			}
		})
	}
}

func TestCheckReadiness_Timeout(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.RegisterCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	got := c.CheckReadiness(context.Background())
	if got.Ready() {
		t.Fatal("slow check should not be ready")
	}
	if got.Checks["slow"].Message != "health check timeout" {
		t.Errorf("Message = %q", got.Checks["slow"].Message)
	}
}

func TestHandlers(t *testing.T) {
	c := New(time.Second)
	failing := false
	c.RegisterCheck("ledger", func(context.Context) error {
		if failing {
			return errors.New("closed")
		}
		return nil
	})

	mux := http.NewServeMux()
	Register(mux, c, "1.2.3", "abc", "now")

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	if rec := get("/health"); rec.Code != http.StatusOK {
		t.Errorf("/health = %d", rec.Code)
	}
	if rec := get("/ready"); rec.Code != http.StatusOK {
		t.Errorf("/ready = %d", rec.Code)
	}

	failing = true
	rec := get("/ready")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/ready with failing check = %d", rec.Code)
	}
	var status HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.Checks["ledger"].Message != "closed" {
		t.Errorf("ledger check = %+v", status.Checks["ledger"])
	}

	var info VersionInfo
	if err := json.Unmarshal(get("/version").Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.Version != "1.2.3" || info.GoVersion == "" {
		t.Errorf("version = %+v", info)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /health = %d", rec.Code)
	}
}

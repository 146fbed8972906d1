package health

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// CheckFunc reports nil when a component is healthy.
type CheckFunc func(ctx context.Context) error

// Status values.
const (
	StatusOK        = "ok"
	StatusReady     = "ready"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// CheckResult is the outcome of one component check.
type CheckResult struct {
	Status   string        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ms,omitempty"`
}

// HealthStatus is the aggregated response of a probe.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Ready reports whether every check passed.
func (s HealthStatus) Ready() bool {
	return s.Status == StatusReady
}

// Checker runs named readiness checks.
type Checker struct {
	mu           sync.RWMutex
	checks       map[string]CheckFunc
	checkTimeout time.Duration
}

// New returns a checker. A zero timeout means 5s per check.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout == 0 {
		checkTimeout = 5 * time.Second
	}
	return &Checker{
		checks:       make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
	}
}

// RegisterCheck adds or replaces the check for name.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// CheckLiveness reports that the process is up.
func (c *Checker) CheckLiveness(ctx context.Context) HealthStatus {
	return HealthStatus{Status: StatusOK, Timestamp: time.Now()}
}

// CheckReadiness runs all checks concurrently. Any failing check makes the
// overall status degraded.
func (c *Checker) CheckReadiness(ctx context.Context) HealthStatus {
	c.mu.RLock()
	checks := maps.Clone(c.checks)
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var mu sync.Mutex

	var g errgroup.Group
	for name, check := range checks {
		g.Go(func() error {
			result := c.runCheck(ctx, check)
			mu.Lock()
			results[name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := StatusReady
	for _, result := range results {
		if result.Status != StatusOK {
			status = StatusDegraded
		}
	}

	return HealthStatus{Status: status, Checks: results, Timestamp: time.Now()}
}

func (c *Checker) runCheck(ctx context.Context, check CheckFunc) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()
	errCh := make(chan error, 1)
	go func() {
		errCh <- check(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return CheckResult{Status: StatusUnhealthy, Message: err.Error(), Duration: time.Since(start)}
		}
		return CheckResult{Status: StatusOK, Duration: time.Since(start)}
	case <-ctx.Done():
		return CheckResult{Status: StatusUnhealthy, Message: "health check timeout", Duration: time.Since(start)}
	}
}

// Pinger is a dependency that can be probed, such as the ledger store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck adapts a Pinger.
func PingCheck(p Pinger) CheckFunc {
	return p.Ping
}

// HealthReporter is implemented by completion providers.
type HealthReporter interface {
	GetName() string
	IsHealthy() bool
}

// ProviderCheck fails while the provider's recent requests are failing.
func ProviderCheck(p HealthReporter) CheckFunc {
	return func(ctx context.Context) error {
		if !p.IsHealthy() {
			return fmt.Errorf("provider %s is failing", p.GetName())
		}
		return nil
	}
}

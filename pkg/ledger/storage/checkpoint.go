package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Checkpointable is a store whose write-ahead log can be truncated.
type Checkpointable interface {
	Checkpoint(ctx context.Context) error
}

// Checkpointer runs WAL checkpoints against a store on a cron schedule so the
// log file does not grow without bound on long-running relays.
type Checkpointer struct {
	store    Checkpointable
	schedule string
	timeout  time.Duration

	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
	runs    int
}

// NewCheckpointer creates a checkpointer for store. An empty schedule disables it.
func NewCheckpointer(store Checkpointable, schedule string) *Checkpointer {
	return &Checkpointer{
		store:    store,
		schedule: schedule,
		timeout:  30 * time.Second,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "ledger.checkpointer"),
	}
}

// Start schedules checkpoints using a standard five-field cron expression,
// for example "*/15 * * * *". It stops when ctx is cancelled.
func (c *Checkpointer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.schedule == "" {
		c.logger.Info("checkpoint schedule not configured, skipping")
		return nil
	}
	if c.running {
		return fmt.Errorf("checkpointer already running")
	}

	if _, err := cron.ParseStandard(c.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", c.schedule, err)
	}

	if _, err := c.cron.AddFunc(c.schedule, func() { c.RunNow(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule checkpoint: %w", err)
	}

	c.cron.Start()
	c.running = true
	c.logger.Info("checkpointer started", "schedule", c.schedule)

	go func() {
		<-ctx.Done()
		c.Stop()
	}()

	return nil
}

// Stop halts scheduling and waits for a running checkpoint to finish.
func (c *Checkpointer) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	<-c.cron.Stop().Done()
	c.logger.Info("checkpointer stopped")
}

// IsRunning reports whether checkpoints are scheduled.
func (c *Checkpointer) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// NextRun returns the next scheduled checkpoint, or zero when not running.
func (c *Checkpointer) NextRun() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return time.Time{}
	}
	entries := c.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunNow performs one checkpoint immediately.
func (c *Checkpointer) RunNow(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	start := time.Now()
	err := c.store.Checkpoint(ctx)

	c.mu.Lock()
	c.runs++
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("checkpoint failed", "error", err)
		return err
	}
	c.logger.Debug("checkpoint completed", "duration", time.Since(start))
	return nil
}

// Runs returns how many checkpoints have been attempted.
func (c *Checkpointer) Runs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs
}

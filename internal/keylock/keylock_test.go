package keylock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMap_SerializesSameKey(t *testing.T) {
	m := New()
	ctx := context.Background()

	var (
		active  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(ctx, "chat")
			if err != nil {
				t.Errorf("Lock() error = %v", err)
				return
			}
			defer unlock()

			n := active.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()

	if maxSeen.Load() != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxSeen.Load())
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d after all released, want 0", m.Len())
	}
}

func TestMap_DifferentKeysIndependent(t *testing.T) {
	m := New()
	ctx := context.Background()

	unlockA, err := m.Lock(ctx, "a")
	if err != nil {
		t.Fatalf("Lock(a) error = %v", err)
	}
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB, err := m.Lock(ctx, "b")
		if err == nil {
			unlockB()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
}

func TestMap_LockHonoursContext(t *testing.T) {
	m := New()

	unlock, _ := m.Lock(context.Background(), "k")
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.Lock(ctx, "k")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Lock() error = %v, want DeadlineExceeded", err)
	}
	if !m.Held("k") {
		t.Error("abandoned waiter released the holder's lock")
	}
}

func TestMap_TryLock(t *testing.T) {
	m := New()

	unlock, ok := m.TryLock("k")
	if !ok {
		t.Fatal("TryLock() on free key failed")
	}
	if _, ok := m.TryLock("k"); ok {
		t.Fatal("TryLock() on held key succeeded")
	}

	unlock()
	unlock() // second call is a no-op

	if m.Held("k") {
		t.Error("key still held after unlock")
	}
	if _, ok := m.TryLock("k"); !ok {
		t.Error("TryLock() after unlock failed")
	}
}

// Package keylock provides mutual exclusion keyed by string.
package keylock

import (
	"context"
	"sync"
)

// semaphore is a one-slot buffered channel; holding the slot holds the lock.
type semaphore struct {
	ch   chan struct{}
	refs int // holders plus waiters
}

// Map hands out one exclusive section per key. Entries exist only while a
// key is held or waited on, so idle keys cost nothing.
type Map struct {
	mu   sync.Mutex
	sems map[string]*semaphore
}

// New creates an empty lock map.
func New() *Map {
	return &Map{sems: make(map[string]*semaphore)}
}

func (m *Map) ref(key string) *semaphore {
	m.mu.Lock()
	defer m.mu.Unlock()

	sem, ok := m.sems[key]
	if !ok {
		sem = &semaphore{ch: make(chan struct{}, 1)}
		m.sems[key] = sem
	}
	sem.refs++
	return sem
}

func (m *Map) unref(key string, sem *semaphore) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sem.refs--
	if sem.refs == 0 {
		delete(m.sems, key)
	}
}

// Lock blocks until the section for key is free or ctx is done. The returned
// function releases the section and must be called exactly once.
func (m *Map) Lock(ctx context.Context, key string) (func(), error) {
	sem := m.ref(key)

	select {
	case sem.ch <- struct{}{}:
		return m.releaser(key, sem), nil
	case <-ctx.Done():
		m.unref(key, sem)
		return nil, ctx.Err()
	}
}

// TryLock acquires the section for key only if it is free.
func (m *Map) TryLock(key string) (func(), bool) {
	sem := m.ref(key)

	select {
	case sem.ch <- struct{}{}:
		return m.releaser(key, sem), true
	default:
		m.unref(key, sem)
		return nil, false
	}
}

func (m *Map) releaser(key string, sem *semaphore) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-sem.ch
			m.unref(key, sem)
		})
	}
}

// Held reports whether the section for key is currently taken.
func (m *Map) Held(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sem, ok := m.sems[key]
	return ok && len(sem.ch) == 1
}

// Len returns the number of keys currently held or awaited.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sems)
}

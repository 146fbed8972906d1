package storage

import (
	"context"
	"sort"
	"sync"

	"mercator-hq/relay/pkg/ledger"
)

// MemoryStore implements ledger.Store in process memory. It is used by tests
// and by the "memory" ledger driver for throwaway deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*ledger.Record
	ids     map[string]struct{}
	gates   map[string]ledger.GateState
	closed  bool
}

// NewMemoryStore creates an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ids:   make(map[string]struct{}),
		gates: make(map[string]ledger.GateState),
	}
}

// AppendRecord stores a copy of record. Duplicate ids are rejected like a
// primary-key violation.
func (s *MemoryStore) AppendRecord(ctx context.Context, record *ledger.Record) error {
	if err := record.Validate(); err != nil {
		return ledger.NewStorageError("memory", "append", err)
	}
	if err := ctx.Err(); err != nil {
		return ledger.NewStorageError("memory", "append", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ledger.NewStorageError("memory", "append", ledger.ErrClosed)
	}
	if _, ok := s.ids[record.ID]; ok {
		return ledger.NewStorageError("memory", "append", &ledger.ValidationError{
			Field: "id", Message: "duplicate record id " + record.ID,
		})
	}

	recordCopy := *record
	s.records = append(s.records, &recordCopy)
	s.ids[record.ID] = struct{}{}
	return nil
}

// Records returns copies of the matching records, newest first.
func (s *MemoryStore) Records(ctx context.Context, query *ledger.Query) ([]*ledger.Record, error) {
	if query == nil {
		query = &ledger.Query{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ledger.NewStorageError("memory", "records", ledger.ErrClosed)
	}

	// Walk newest-appended first so equal timestamps keep reverse append order.
	results := []*ledger.Record{}
	for i := len(s.records) - 1; i >= 0; i-- {
		if record := s.records[i]; matchesQuery(record, query) {
			recordCopy := *record
			results = append(results, &recordCopy)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	start := max(query.Offset, 0)
	if start > len(results) {
		return []*ledger.Record{}, nil
	}
	limit := query.Limit
	if limit <= 0 {
		limit = ledger.DefaultQueryLimit
	}
	end := min(start+limit, len(results))

	return results[start:end], nil
}

func matchesQuery(record *ledger.Record, query *ledger.Query) bool {
	if query.ConversationID != "" && record.ConversationID != query.ConversationID {
		return false
	}
	if query.PrincipalID != "" && record.PrincipalID != query.PrincipalID {
		return false
	}
	if !query.Since.IsZero() && record.CreatedAt.Before(query.Since) {
		return false
	}
	if !query.Until.IsZero() && !record.CreatedAt.Before(query.Until) {
		return false
	}
	return true
}

// GateState returns the stored switch for key.
func (s *MemoryStore) GateState(ctx context.Context, key string) (*ledger.GateState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ledger.NewStorageError("memory", "gate_get", ledger.ErrClosed)
	}

	state, ok := s.gates[key]
	if !ok {
		return nil, false, nil
	}
	return &state, true, nil
}

// PutGateState replaces the switch for state.ScopeKey.
func (s *MemoryStore) PutGateState(ctx context.Context, state *ledger.GateState) error {
	if state == nil || state.ScopeKey == "" {
		return ledger.NewStorageError("memory", "gate_put", &ledger.ValidationError{
			Field: "scope_key", Message: "scope key is required",
		})
	}
	if err := ctx.Err(); err != nil {
		return ledger.NewStorageError("memory", "gate_put", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ledger.NewStorageError("memory", "gate_put", ledger.ErrClosed)
	}
	s.gates[state.ScopeKey] = *state
	return nil
}

// Ping reports whether the store is open.
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ledger.NewStorageError("memory", "ping", ledger.ErrClosed)
	}
	return nil
}

// Close marks the store closed. Data is discarded.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len returns the number of records held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

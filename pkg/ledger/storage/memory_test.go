package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"mercator-hq/relay/pkg/ledger"
)

func TestMemoryStore_AppendAndRecords(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	at := time.Now()
	a := newTestRecord("chat", "user", "a", at)
	b := newTestRecord("chat", "user", "b", at)
	c := newTestRecord("other", "user", "c", at.Add(-time.Minute))

	for _, r := range []*ledger.Record{a, b, c} {
		if err := store.AppendRecord(ctx, r); err != nil {
			t.Fatalf("AppendRecord() error = %v", err)
		}
	}

	got, err := store.Records(ctx, nil)
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i, r := range got {
		if r.UserText != want[i] {
			t.Errorf("record %d = %q, want %q", i, r.UserText, want[i])
		}
	}

	// Returned records are copies.
	got[0].UserText = "mutated"
	again, _ := store.Records(ctx, &ledger.Query{ConversationID: "chat", Limit: 1})
	if again[0].UserText != "b" {
		t.Error("caller mutation leaked into the store")
	}
}

func TestMemoryStore_DuplicateID(t *testing.T) {
	store := NewMemoryStore()
	r := newTestRecord("chat", "user", "a", time.Now())

	if err := store.AppendRecord(context.Background(), r); err != nil {
		t.Fatalf("AppendRecord() error = %v", err)
	}
	if err := store.AppendRecord(context.Background(), r); err == nil {
		t.Fatal("expected duplicate id error")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestMemoryStore_GateState(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, found, err := store.GateState(ctx, "*"); found || err != nil {
		t.Fatalf("GateState() on empty store = %v, %v", found, err)
	}
	if err := store.PutGateState(ctx, &ledger.GateState{ScopeKey: "*", Enabled: true}); err != nil {
		t.Fatalf("PutGateState() error = %v", err)
	}
	state, found, _ := store.GateState(ctx, "*")
	if !found || !state.Enabled {
		t.Errorf("GateState() = %+v, %v", state, found)
	}

	if err := store.PutGateState(ctx, &ledger.GateState{}); err == nil {
		t.Error("expected error for empty scope key")
	}
}

func TestMemoryStore_Closed(t *testing.T) {
	store := NewMemoryStore()
	store.Close()

	if _, _, err := store.GateState(context.Background(), "k"); !errors.Is(err, ledger.ErrClosed) {
		t.Errorf("GateState() after Close = %v, want ErrClosed", err)
	}
}

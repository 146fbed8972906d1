package secrets

import (
	"testing"
	"time"
)

func TestCache_Expiry(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewCache(CacheConfig{Enabled: true, TTL: time.Minute, MaxSize: 10})
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("Get() = %q, %v", v, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry still returned")
	}
}

func TestCache_Disabled(t *testing.T) {
	c := NewCache(CacheConfig{Enabled: false})
	c.Set("k", "v")
	if _, ok := c.Get("k"); ok {
		t.Error("disabled cache returned a value")
	}
	if c.Size() != 0 {
		t.Error("disabled cache stored a value")
	}
}

func TestCache_EvictsWhenFull(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewCache(CacheConfig{Enabled: true, TTL: time.Minute, MaxSize: 2})
	c.now = func() time.Time { return now }

	c.Set("a", "1")
	now = now.Add(time.Second)
	c.Set("b", "2")
	now = now.Add(time.Second)
	c.Set("c", "3")

	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry was not evicted")
	}

	// Overwriting an existing key does not evict.
	c.Set("c", "4")
	if _, ok := c.Get("b"); !ok {
		t.Error("overwrite evicted another entry")
	}

	c.Clear()
	if c.Size() != 0 {
		t.Error("Clear() left entries")
	}
}

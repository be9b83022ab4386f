package memory

import (
	"testing"

	"github.com/discochess/blobkeep/objectstore/cachedstore/cachestrategy/lru"
)

func newBackend(t *testing.T, capacity int) *Backend {
	t.Helper()
	strategy, err := lru.New(capacity)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	return New(strategy, nil)
}

func TestBackend_GetSetRemove(t *testing.T) {
	b := newBackend(t, 10)

	if _, ok := b.Get("ab/1"); ok {
		t.Error("Get() should return false for missing key")
	}

	b.Set("ab/1", []byte("hello"))
	data, ok := b.Get("ab/1")
	if !ok {
		t.Fatal("Get() should return true after Set")
	}
	if string(data) != "hello" {
		t.Errorf("Get() = %q, want %q", data, "hello")
	}

	b.Remove("ab/1")
	b.Remove("never-set")
	if _, ok := b.Get("ab/1"); ok {
		t.Error("Get() should return false after Remove")
	}
}

func TestBackend_Stats(t *testing.T) {
	b := newBackend(t, 10)

	b.Set("a", []byte("data"))
	b.Get("a")
	b.Get("b")

	stats := b.Stats()
	if stats.Hits != 1 {
		t.Errorf("Stats().Hits = %d, want 1", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Stats().Misses = %d, want 1", stats.Misses)
	}
	if stats.Size != 1 {
		t.Errorf("Stats().Size = %d, want 1", stats.Size)
	}
}

func TestBackend_LRUEviction(t *testing.T) {
	b := newBackend(t, 2)

	b.Set("a", []byte("1"))
	b.Set("b", []byte("2"))
	b.Get("a") // a is now most recently used.
	b.Set("c", []byte("3"))

	if _, ok := b.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := b.Get("a"); !ok {
		t.Error("a should still be cached")
	}
	if _, ok := b.Get("c"); !ok {
		t.Error("c should be cached")
	}
}

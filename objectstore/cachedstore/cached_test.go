package cachedstore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/discochess/blobkeep/objectstore"
	"github.com/discochess/blobkeep/objectstore/memstore"
)

// fakeBackend is a simple in-memory backend for testing.
type fakeBackend struct {
	data   map[string][]byte
	hits   int64
	misses int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: make(map[string][]byte)}
}

func (b *fakeBackend) Get(name string) ([]byte, bool) {
	if data, ok := b.data[name]; ok {
		b.hits++
		return data, true
	}
	b.misses++
	return nil, false
}

func (b *fakeBackend) Set(name string, data []byte) {
	b.data[name] = data
}

func (b *fakeBackend) Remove(name string) {
	delete(b.data, name)
}

func (b *fakeBackend) Stats() Stats {
	return Stats{Hits: b.hits, Misses: b.misses, Size: len(b.data)}
}

// countingStore counts downloads that reach the wrapped store.
type countingStore struct {
	*memstore.Store
	downloads int
}

func (s *countingStore) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	s.downloads++
	return s.Store.Download(ctx, name)
}

func read(t *testing.T, s *Store, name string) string {
	t.Helper()
	body, err := s.Download(context.Background(), name)
	if err != nil {
		t.Fatalf("Download(%q) error = %v", name, err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return string(data)
}

func TestStore_CacheHit(t *testing.T) {
	backend := newFakeBackend()
	underlying := &countingStore{Store: memstore.New("test")}

	// Pre-populate cache.
	backend.Set("ab/1", []byte("cached data"))

	s := New(underlying, backend)

	if got := read(t, s, "ab/1"); got != "cached data" {
		t.Errorf("Download() = %q, want %q", got, "cached data")
	}
	if underlying.downloads != 0 {
		t.Errorf("underlying downloads = %d, want 0", underlying.downloads)
	}
	if stats := s.Stats(); stats.Hits != 1 {
		t.Errorf("Stats().Hits = %d, want 1", stats.Hits)
	}
}

func TestStore_CacheMissFills(t *testing.T) {
	backend := newFakeBackend()
	underlying := &countingStore{Store: memstore.New("test")}
	s := New(underlying, backend)
	ctx := context.Background()

	if err := underlying.Upload(ctx, "ab/1", []byte("fresh")); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if got := read(t, s, "ab/1"); got != "fresh" {
			t.Errorf("Download() = %q, want %q", got, "fresh")
		}
	}
	if underlying.downloads != 1 {
		t.Errorf("underlying downloads = %d, want 1", underlying.downloads)
	}
	stats := s.Stats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("Stats() = %+v, want 2 hits and 1 miss", stats)
	}
}

func TestStore_NotFoundNotCached(t *testing.T) {
	backend := newFakeBackend()
	s := New(memstore.New("test"), backend)

	_, err := s.Download(context.Background(), "missing")
	if !errors.Is(err, objectstore.ErrNotFound) {
		t.Fatalf("Download() error = %v, want ErrNotFound", err)
	}
	if len(backend.data) != 0 {
		t.Errorf("cache holds %d entries, want 0", len(backend.data))
	}
}

func TestStore_WritesInvalidate(t *testing.T) {
	backend := newFakeBackend()
	s := New(memstore.New("test"), backend)
	ctx := context.Background()

	if err := s.Upload(ctx, "ab/1", []byte("v1")); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	read(t, s, "ab/1")

	if err := s.Upload(ctx, "ab/1", []byte("v2")); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if got := read(t, s, "ab/1"); got != "v2" {
		t.Errorf("Download() after overwrite = %q, want %q", got, "v2")
	}

	if err := s.DeleteIfExists(ctx, "ab/1"); err != nil {
		t.Fatalf("DeleteIfExists() error = %v", err)
	}
	if _, err := s.Download(ctx, "ab/1"); !errors.Is(err, objectstore.ErrNotFound) {
		t.Errorf("Download() after delete error = %v, want ErrNotFound", err)
	}
}

func TestStore_Cancelled(t *testing.T) {
	backend := newFakeBackend()
	backend.Set("ab/1", []byte("cached"))
	s := New(memstore.New("test"), backend)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Download(ctx, "ab/1"); !errors.Is(err, context.Canceled) {
		t.Errorf("Download() error = %v, want context.Canceled", err)
	}
}

func TestStats_HitRate(t *testing.T) {
	tests := []struct {
		stats Stats
		want  float64
	}{
		{Stats{}, 0},
		{Stats{Hits: 1, Misses: 1}, 50},
		{Stats{Hits: 3, Misses: 1}, 75},
	}

	for _, tt := range tests {
		if got := tt.stats.HitRate(); got != tt.want {
			t.Errorf("%+v.HitRate() = %v, want %v", tt.stats, got, tt.want)
		}
	}
}

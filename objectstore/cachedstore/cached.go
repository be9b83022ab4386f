package cachedstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/discochess/blobkeep/objectstore"
)

// Compile-time check that Store implements objectstore.Store.
var _ objectstore.Store = (*Store)(nil)

// Store wraps another Store, caching downloaded objects.
// Uploads and deletes through the Store evict the object; changes made
// by other writers are not observed until eviction.
type Store struct {
	objectstore.Store
	backend Backend
}

// New creates a new cached store wrapping the given store.
func New(underlying objectstore.Store, backend Backend) *Store {
	return &Store{
		Store:   underlying,
		backend: backend,
	}
}

// Upload writes through to the underlying store and evicts the cached copy.
func (s *Store) Upload(ctx context.Context, name string, data []byte) error {
	err := s.Store.Upload(ctx, name, data)
	s.backend.Remove(name)
	return err
}

// Download serves the object from the cache, reading it fully from the
// underlying store on a miss.
func (s *Store) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if data, ok := s.backend.Get(name); ok {
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	body, err := s.Store.Download(ctx, name)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading object: %w", err)
	}
	s.backend.Set(name, data)

	return io.NopCloser(bytes.NewReader(data)), nil
}

// DeleteIfExists deletes from the underlying store and evicts the cached copy.
func (s *Store) DeleteIfExists(ctx context.Context, name string) error {
	err := s.Store.DeleteIfExists(ctx, name)
	s.backend.Remove(name)
	return err
}

// Stats returns cache statistics.
func (s *Store) Stats() Stats {
	return s.backend.Stats()
}

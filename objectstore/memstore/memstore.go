// Package memstore provides an in-memory object store for testing.
package memstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"sort"
	"strings"
	"sync"

	"github.com/discochess/blobkeep/objectstore"
)

// DefaultChunkSize is the largest slice returned by a single Read on a
// download stream.
const DefaultChunkSize = 4 << 10

// Compile-time check that Store implements objectstore.Store.
var _ objectstore.Store = (*Store)(nil)

// Store is an in-memory object store for testing.
type Store struct {
	name      string
	chunkSize int

	mu        sync.RWMutex
	container bool
	objects   map[string][]byte
}

// Option configures a Store.
type Option func(*Store)

// WithChunkSize limits how many bytes a download stream returns per Read.
func WithChunkSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithContainer controls whether the container exists initially.
// Default is true.
func WithContainer(exists bool) Option {
	return func(s *Store) {
		s.container = exists
	}
}

// New creates a new in-memory store for the named container.
func New(name string, opts ...Option) *Store {
	s := &Store{
		name:      name,
		chunkSize: DefaultChunkSize,
		container: true,
		objects:   make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the container name.
func (s *Store) Name() string {
	return s.name
}

// Upload stores a copy of data.
func (s *Store) Upload(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.container {
		return fmt.Errorf("container %q: %w", s.name, objectstore.ErrNotFound)
	}
	s.objects[name] = bytes.Clone(data)
	return nil
}

// Download returns a reader over the object.
func (s *Store) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[name]
	if !ok {
		return nil, fmt.Errorf("object %q: %w", name, objectstore.ErrNotFound)
	}
	return io.NopCloser(&chunkReader{data: data, chunk: s.chunkSize}), nil
}

// Exists reports whether the object exists.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.objects[name]
	return ok, nil
}

// DeleteIfExists removes the object.
func (s *Store) DeleteIfExists(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, name)
	return nil
}

// List yields object names with the given prefix in lexical order.
// The names are snapshotted when iteration starts.
func (s *Store) List(ctx context.Context, prefix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		s.mu.RLock()
		names := make([]string, 0, len(s.objects))
		for name := range s.objects {
			if strings.HasPrefix(name, prefix) {
				names = append(names, name)
			}
		}
		s.mu.RUnlock()
		sort.Strings(names)

		for _, name := range names {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			if !yield(name, nil) {
				return
			}
		}
	}
}

// ContainerProperties reports whether the container exists.
func (s *Store) ContainerProperties(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.container {
		return fmt.Errorf("container %q: %w", s.name, objectstore.ErrNotFound)
	}
	return nil
}

// CreateContainer marks the container as existing.
func (s *Store) CreateContainer(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.container = true
	return nil
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}

// Len returns the number of stored objects (for test assertions).
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// HasContainer reports whether the container exists (for test assertions).
func (s *Store) HasContainer() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.container
}

// chunkReader returns at most chunk bytes per Read.
type chunkReader struct {
	data  []byte
	off   int
	chunk int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.off >= len(r.data) {
		return 0, io.EOF
	}
	if len(p) > r.chunk {
		p = p[:r.chunk]
	}
	n := copy(p, r.data[r.off:])
	r.off += n
	return n, nil
}

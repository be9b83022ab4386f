// Package objectstore defines the blob storage backend interface the
// blockstore and datastore adapters are built on.
package objectstore

import (
	"context"
	"errors"
	"io"
	"iter"
)

var (
	// ErrNotFound is returned when an object or the container does not exist.
	ErrNotFound = errors.New("objectstore: not found")

	// ErrForbidden is returned when the credentials do not allow the request.
	// Stores running under a policy without list permission report missing
	// objects this way.
	ErrForbidden = errors.New("objectstore: forbidden")

	// ErrInvalidConfig is returned by constructors given an unusable configuration.
	ErrInvalidConfig = errors.New("objectstore: invalid configuration")
)

// Store defines the interface for blob storage backends.
// Implementations classify their SDK errors by wrapping ErrNotFound and
// ErrForbidden; callers inspect errors only through errors.Is.
// A Store is bound to a single container and must be safe for concurrent use.
type Store interface {
	// Name returns the container (bucket) name.
	Name() string

	// Upload creates or overwrites the object called name.
	Upload(ctx context.Context, name string, data []byte) error

	// Download opens the object called name for reading.
	// The caller must close the returned reader.
	Download(ctx context.Context, name string) (io.ReadCloser, error)

	// Exists reports whether the object called name exists.
	Exists(ctx context.Context, name string) (bool, error)

	// DeleteIfExists removes the object called name. Removing an absent
	// object is not an error.
	DeleteIfExists(ctx context.Context, name string) error

	// List yields the names of all objects starting with prefix, in
	// backend-defined order. Iteration stops at the first error.
	List(ctx context.Context, prefix string) iter.Seq2[string, error]

	// ContainerProperties checks that the container exists.
	// It returns an error wrapping ErrNotFound when it does not.
	ContainerProperties(ctx context.Context) error

	// CreateContainer creates the container. An existing container is not an error.
	CreateContainer(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Package gcsstore implements a Google Cloud Storage object store.
package gcsstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/discochess/blobkeep/objectstore"
)

// Compile-time check that Store implements objectstore.Store.
var _ objectstore.Store = (*Store)(nil)

// Store is a Google Cloud Storage object store bound to one bucket.
type Store struct {
	client     *storage.Client
	ownsClient bool
	bucketName string
	bucket     *storage.BucketHandle
	prefix     string
	projectID  string
}

type settings struct {
	client     *storage.Client
	prefix     string
	projectID  string
	clientOpts []option.ClientOption
}

// Option configures a Store.
type Option func(*settings)

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *settings) {
		s.prefix = strings.TrimSuffix(prefix, "/")
		if s.prefix != "" {
			s.prefix += "/"
		}
	}
}

// WithProjectID sets the project CreateContainer creates the bucket in.
func WithProjectID(id string) Option {
	return func(s *settings) {
		s.projectID = id
	}
}

// WithClient uses a pre-built client. The Store does not close it.
func WithClient(c *storage.Client) Option {
	return func(s *settings) {
		s.client = c
	}
}

// WithClientOptions passes options to storage.NewClient, such as an
// emulator endpoint or explicit credentials.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(s *settings) {
		s.clientOpts = append(s.clientOpts, opts...)
	}
}

// New creates a new GCS store for bucketName.
func New(ctx context.Context, bucketName string, opts ...Option) (*Store, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("%w: bucket name is required", objectstore.ErrInvalidConfig)
	}

	var cfg settings
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Store{
		client:     cfg.client,
		bucketName: bucketName,
		prefix:     cfg.prefix,
		projectID:  cfg.projectID,
	}
	if s.client == nil {
		client, err := storage.NewClient(ctx, cfg.clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("creating GCS client: %w", err)
		}
		s.client = client
		s.ownsClient = true
	}
	s.bucket = s.client.Bucket(bucketName)

	return s, nil
}

// Name returns the bucket name.
func (s *Store) Name() string {
	return s.bucketName
}

// Upload creates or overwrites an object.
func (s *Store) Upload(ctx context.Context, name string, data []byte) error {
	w := s.bucket.Object(s.key(name)).NewWriter(ctx)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return classify("writing object", err)
	}
	if err := w.Close(); err != nil {
		return classify("finalizing object", err)
	}
	return nil
}

// Download opens an object for reading.
func (s *Store) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := s.bucket.Object(s.key(name)).NewReader(ctx)
	if err != nil {
		return nil, classify("reading object", err)
	}
	return r, nil
}

// Exists reports whether an object exists.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.bucket.Object(s.key(name)).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, classify("probing object", err)
	}
	return true, nil
}

// DeleteIfExists removes an object.
func (s *Store) DeleteIfExists(ctx context.Context, name string) error {
	err := s.bucket.Object(s.key(name)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return classify("deleting object", err)
	}
	return nil
}

// List yields object names under prefix in lexical order.
func (s *Store) List(ctx context.Context, prefix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		it := s.bucket.Objects(ctx, &storage.Query{Prefix: s.key(prefix)})
		for {
			attrs, err := it.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				yield("", classify("listing objects", err))
				return
			}
			if !yield(strings.TrimPrefix(attrs.Name, s.prefix), nil) {
				return
			}
		}
	}
}

// ContainerProperties checks that the bucket exists.
func (s *Store) ContainerProperties(ctx context.Context) error {
	if _, err := s.bucket.Attrs(ctx); err != nil {
		return classify("probing bucket", err)
	}
	return nil
}

// CreateContainer creates the bucket. It requires a project ID.
func (s *Store) CreateContainer(ctx context.Context) error {
	if s.projectID == "" {
		return fmt.Errorf("%w: creating a bucket requires a project ID", objectstore.ErrInvalidConfig)
	}
	err := s.bucket.Create(ctx, s.projectID, nil)
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
		return nil
	}
	if err != nil {
		return classify("creating bucket", err)
	}
	return nil
}

// Close closes the client if the Store created it.
func (s *Store) Close() error {
	if s.ownsClient {
		return s.client.Close()
	}
	return nil
}

// key returns the full object name for name.
func (s *Store) key(name string) string {
	return s.prefix + name
}

// classify wraps err with the objectstore sentinel it corresponds to.
func classify(action string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("%s: %w: %w", action, objectstore.ErrNotFound, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %w", action, objectstore.ErrNotFound, err)
		case http.StatusForbidden, http.StatusUnauthorized:
			return fmt.Errorf("%s: %w: %w", action, objectstore.ErrForbidden, err)
		}
	}

	return fmt.Errorf("%s: %w", action, err)
}

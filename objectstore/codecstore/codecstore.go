// Package codecstore compresses object payloads transparently on top of
// another objectstore.Store. Object names are unchanged.
package codecstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/discochess/blobkeep/internal/codec"
	"github.com/discochess/blobkeep/internal/codec/gzipcodec"
	"github.com/discochess/blobkeep/internal/codec/noopcodec"
	"github.com/discochess/blobkeep/internal/codec/zstdcodec"
	"github.com/discochess/blobkeep/objectstore"
)

// Compile-time check that Store implements objectstore.Store.
var _ objectstore.Store = (*Store)(nil)

// Store wraps another Store, compressing uploads and decompressing downloads.
type Store struct {
	objectstore.Store
	codec codec.Codec
}

// New wraps underlying with the given codec.
func New(underlying objectstore.Store, c codec.Codec) *Store {
	return &Store{Store: underlying, codec: c}
}

// NewByName wraps underlying with the codec called name: "zstd", "gzip"
// or "none".
func NewByName(underlying objectstore.Store, name string) (*Store, error) {
	c, err := CodecByName(name)
	if err != nil {
		return nil, err
	}
	return New(underlying, c), nil
}

// CodecByName returns the built-in codec called name.
func CodecByName(name string) (codec.Codec, error) {
	switch name {
	case "zstd":
		return zstdcodec.New(), nil
	case "gzip":
		return gzipcodec.New(), nil
	case "none", "":
		return noopcodec.New(), nil
	default:
		return nil, fmt.Errorf("%w: unknown codec %q", objectstore.ErrInvalidConfig, name)
	}
}

// Codec returns the codec in use.
func (s *Store) Codec() codec.Codec {
	return s.codec
}

// Upload compresses data and uploads the result.
func (s *Store) Upload(ctx context.Context, name string, data []byte) error {
	var buf bytes.Buffer
	w, err := s.codec.Writer(&buf)
	if err != nil {
		return fmt.Errorf("creating compressor: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("compressing object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("compressing object: %w", err)
	}
	return s.Store.Upload(ctx, name, buf.Bytes())
}

// Download returns a stream that decompresses the object as it is read.
func (s *Store) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	body, err := s.Store.Download(ctx, name)
	if err != nil || body == nil {
		return body, err
	}

	r, err := s.codec.Reader(body)
	if err != nil {
		body.Close()
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	return &readCloser{Reader: r, closers: []io.Closer{r, body}}, nil
}

// readCloser closes the decompressor and then the raw body.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var first error
	for _, c := range rc.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

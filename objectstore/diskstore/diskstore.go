// Package diskstore implements an object store on a local directory tree.
// The root directory plays the role of the container and object names map
// to slash-separated paths below it.
package diskstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/discochess/blobkeep/objectstore"
)

// tempPrefix marks in-flight writes. Such files are never listed.
const tempPrefix = ".blobkeep-tmp-"

// Compile-time check that Store implements objectstore.Store.
var _ objectstore.Store = (*Store)(nil)

// Store is an object store on a local directory tree.
type Store struct {
	root string
}

// New creates a new disk store rooted at the given directory.
// The directory need not exist yet: CreateContainer creates it.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: root directory is required", objectstore.ErrInvalidConfig)
	}
	return &Store{root: filepath.Clean(root)}, nil
}

// Name returns the root directory.
func (s *Store) Name() string {
	return s.root
}

// Upload writes the object atomically through a temporary file.
func (s *Store) Upload(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ContainerProperties(ctx); err != nil {
		return err
	}
	path, err := s.path(name)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing object: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming object: %w", err)
	}
	return nil
}

// Download opens the object file.
func (s *Store) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, classify("opening object", err)
	}
	return f, nil
}

// Exists reports whether the object file exists.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := s.path(name)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, classify("probing object", err)
	}
	return info.Mode().IsRegular(), nil
}

// DeleteIfExists removes the object file.
func (s *Store) DeleteIfExists(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return classify("removing object", err)
	}
	return nil
}

// List walks the tree and yields object names under prefix in lexical order.
func (s *Store) List(ctx context.Context, prefix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var names []string
		err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
				return nil
			}
			rel, err := filepath.Rel(s.root, path)
			if err != nil {
				return err
			}
			if name := filepath.ToSlash(rel); strings.HasPrefix(name, prefix) {
				names = append(names, name)
			}
			return nil
		})
		if err != nil {
			yield("", classify("listing objects", err))
			return
		}
		sort.Strings(names)

		for _, name := range names {
			if !yield(name, nil) {
				return
			}
		}
	}
}

// ContainerProperties checks that the root directory exists.
func (s *Store) ContainerProperties(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(s.root)
	if err != nil {
		return classify("stat root directory", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %w", s.root, objectstore.ErrInvalidConfig)
	}
	return nil
}

// CreateContainer creates the root directory.
func (s *Store) CreateContainer(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("creating root directory: %w", err)
	}
	return nil
}

// Close releases any resources held by the store.
func (s *Store) Close() error {
	return nil
}

// path returns the filesystem path of an object. Names must stay inside root.
func (s *Store) path(name string) (string, error) {
	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("object name %q escapes the root: %w", name, objectstore.ErrInvalidConfig)
	}
	return filepath.Join(s.root, rel), nil
}

func classify(action string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s: %w: %w", action, objectstore.ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%s: %w: %w", action, objectstore.ErrForbidden, err)
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}

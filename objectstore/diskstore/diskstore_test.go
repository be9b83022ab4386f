package diskstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/discochess/blobkeep/objectstore"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestNew_RequiresRoot(t *testing.T) {
	if _, err := New(""); !errors.Is(err, objectstore.ErrInvalidConfig) {
		t.Errorf("New() error = %v, want ErrInvalidConfig", err)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.Upload(ctx, "ab/object", []byte("payload")); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.root, "ab", "object")); err != nil {
		t.Fatalf("object file missing: %v", err)
	}

	body, err := s.Download(ctx, "ab/object")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("Download() = %q, want %q", data, "payload")
	}

	if ok, err := s.Exists(ctx, "ab/object"); err != nil || !ok {
		t.Errorf("Exists() = %v, %v, want true, nil", ok, err)
	}
	if err := s.DeleteIfExists(ctx, "ab/object"); err != nil {
		t.Fatalf("DeleteIfExists() error = %v", err)
	}
	if err := s.DeleteIfExists(ctx, "ab/object"); err != nil {
		t.Fatalf("DeleteIfExists() on absent object error = %v", err)
	}
	if ok, err := s.Exists(ctx, "ab/object"); err != nil || ok {
		t.Errorf("Exists() after delete = %v, %v, want false, nil", ok, err)
	}
}

func TestStore_DownloadNotFound(t *testing.T) {
	s := newStore(t)

	_, err := s.Download(context.Background(), "missing")
	if !errors.Is(err, objectstore.ErrNotFound) {
		t.Errorf("Download() error = %v, want ErrNotFound", err)
	}
}

func TestStore_RejectsEscapingNames(t *testing.T) {
	s := newStore(t)

	for _, name := range []string{"../outside", "/abs", ""} {
		if err := s.Upload(context.Background(), name, []byte("x")); !errors.Is(err, objectstore.ErrInvalidConfig) {
			t.Errorf("Upload(%q) error = %v, want ErrInvalidConfig", name, err)
		}
	}
}

func TestStore_List(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, name := range []string{"cd/3", "ab/2", "ab/1"} {
		if err := s.Upload(ctx, name, []byte(name)); err != nil {
			t.Fatalf("Upload(%q) error = %v", name, err)
		}
	}
	// A leftover temp file from an interrupted write.
	if err := os.WriteFile(filepath.Join(s.root, "ab", tempPrefix+"123"), nil, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	var got []string
	for name, err := range s.List(ctx, "ab/") {
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		got = append(got, name)
	}
	if len(got) != 2 || got[0] != "ab/1" || got[1] != "ab/2" {
		t.Errorf("List() = %v, want [ab/1 ab/2]", got)
	}
}

func TestStore_Container(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "fresh"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if err := s.ContainerProperties(ctx); !errors.Is(err, objectstore.ErrNotFound) {
		t.Fatalf("ContainerProperties() error = %v, want ErrNotFound", err)
	}
	if err := s.Upload(ctx, "x", []byte("x")); !errors.Is(err, objectstore.ErrNotFound) {
		t.Errorf("Upload() before create error = %v, want ErrNotFound", err)
	}
	if err := s.CreateContainer(ctx); err != nil {
		t.Fatalf("CreateContainer() error = %v", err)
	}
	if err := s.ContainerProperties(ctx); err != nil {
		t.Errorf("ContainerProperties() after create error = %v", err)
	}
}

func TestStore_Cancelled(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Upload(ctx, "x", []byte("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("Upload() error = %v, want context.Canceled", err)
	}
}

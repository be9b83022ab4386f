package codecstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/discochess/blobkeep/objectstore"
	"github.com/discochess/blobkeep/objectstore/memstore"
)

func TestStore_RoundTrip(t *testing.T) {
	original := bytes.Repeat([]byte("compressible payload "), 512)

	for _, name := range []string{"zstd", "gzip", "none"} {
		t.Run(name, func(t *testing.T) {
			raw := memstore.New("test", memstore.WithChunkSize(64))
			s, err := NewByName(raw, name)
			if err != nil {
				t.Fatalf("NewByName() error = %v", err)
			}
			ctx := context.Background()

			if err := s.Upload(ctx, "ab/1", original); err != nil {
				t.Fatalf("Upload() error = %v", err)
			}

			body, err := s.Download(ctx, "ab/1")
			if err != nil {
				t.Fatalf("Download() error = %v", err)
			}
			got, err := io.ReadAll(body)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if err := body.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
			if !bytes.Equal(got, original) {
				t.Errorf("Download() returned %d bytes, want %d", len(got), len(original))
			}

			stored, err := raw.Download(ctx, "ab/1")
			if err != nil {
				t.Fatalf("raw Download() error = %v", err)
			}
			storedData, _ := io.ReadAll(stored)
			if name != "none" && len(storedData) >= len(original) {
				t.Errorf("stored %d bytes for a %d byte payload", len(storedData), len(original))
			}
		})
	}
}

func TestStore_PassesThroughErrors(t *testing.T) {
	s, err := NewByName(memstore.New("test"), "zstd")
	if err != nil {
		t.Fatalf("NewByName() error = %v", err)
	}

	_, err = s.Download(context.Background(), "missing")
	if !errors.Is(err, objectstore.ErrNotFound) {
		t.Errorf("Download() error = %v, want ErrNotFound", err)
	}
}

func TestStore_CorruptPayload(t *testing.T) {
	raw := memstore.New("test")
	s, err := NewByName(raw, "gzip")
	if err != nil {
		t.Fatalf("NewByName() error = %v", err)
	}
	ctx := context.Background()

	if err := raw.Upload(ctx, "ab/1", []byte("not gzip")); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if _, err := s.Download(ctx, "ab/1"); err == nil {
		t.Error("Download() of corrupt payload should fail")
	}
}

func TestCodecByName_Unknown(t *testing.T) {
	if _, err := CodecByName("brotli"); !errors.Is(err, objectstore.ErrInvalidConfig) {
		t.Errorf("CodecByName() error = %v, want ErrInvalidConfig", err)
	}
}

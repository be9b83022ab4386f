package hashprefix

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"

	"github.com/discochess/blobkeep/shard"
)

func testCID(t *testing.T, i int) cid.Cid {
	t.Helper()
	mh, err := multihash.Sum([]byte(fmt.Sprintf("block %d", i)), multihash.SHA2_256, -1)
	if err != nil {
		t.Fatalf("multihash.Sum() error = %v", err)
	}
	return cid.NewCidV1(cid.Raw, mh)
}

func TestStrategy_Name(t *testing.T) {
	if got := New(0).Name(); got != "fnv32" {
		t.Errorf("Name() = %q, want %q", got, "fnv32")
	}
}

func TestStrategy_RoundTrip(t *testing.T) {
	s := New(0)
	for i := 0; i < 64; i++ {
		c := testCID(t, i)
		path := s.Encode(c)
		got, err := s.Decode(path)
		if err != nil {
			t.Fatalf("Decode(%q) error = %v", path, err)
		}
		if !got.Equals(c) {
			t.Errorf("Decode(Encode(%s)) = %s", c, got)
		}
	}
}

func TestStrategy_DirectoryWidth(t *testing.T) {
	tests := []struct {
		buckets int
		width   int
	}{
		{0, 2},
		{16, 1},
		{256, 2},
		{4096, 3},
	}

	for _, tt := range tests {
		s := New(tt.buckets)
		dir, _, _ := strings.Cut(s.Encode(testCID(t, 1)), "/")
		if len(dir) != tt.width {
			t.Errorf("New(%d) directory %q, want width %d", tt.buckets, dir, tt.width)
		}
	}
}

func TestStrategy_Distribution(t *testing.T) {
	s := New(16)
	dirs := make(map[string]bool)
	for i := 0; i < 200; i++ {
		dir, _, _ := strings.Cut(s.Encode(testCID(t, i)), "/")
		dirs[dir] = true
	}
	// With FNV hash, 200 CIDs should touch nearly every bucket.
	if len(dirs) < 12 {
		t.Errorf("got %d distinct directories out of 16", len(dirs))
	}
}

func TestStrategy_Decode_Invalid(t *testing.T) {
	s := New(0)
	valid := s.Encode(testCID(t, 7))
	_, file, _ := strings.Cut(valid, "/")
	base36, err := testCID(t, 7).StringOfBase(multibase.Base36)
	if err != nil {
		t.Fatalf("StringOfBase() error = %v", err)
	}

	for _, path := range []string{"", file, "zzz/" + file, "00/bad", "a/b/c", s.dir(base36) + "/" + base36} {
		if _, err := s.Decode(path); !errors.Is(err, shard.ErrInvalidPath) {
			t.Errorf("Decode(%q) error = %v, want ErrInvalidPath", path, err)
		}
	}
}

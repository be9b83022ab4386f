// Package hashprefix implements FNV-1a hash-based sharding.
//
// The directory is derived from a hash of the whole CID string, which gives a
// uniform spread across directories even when CID suffixes cluster. Used
// primarily as a baseline against next-to-last sharding.
package hashprefix

import (
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"

	"github.com/discochess/blobkeep/shard"
)

// DefaultBuckets is the default number of directories.
const DefaultBuckets = 256

// Strategy implements FNV-1a hash-prefix sharding.
type Strategy struct {
	buckets uint32
	digits  int
}

// Ensure Strategy implements shard.Strategy.
var _ shard.Strategy = (*Strategy)(nil)

// New creates a strategy spreading objects across the given number of
// directories. Non-positive values select DefaultBuckets.
func New(buckets int) *Strategy {
	if buckets <= 0 {
		buckets = DefaultBuckets
	}
	return &Strategy{
		buckets: uint32(buckets),
		digits:  len(fmt.Sprintf("%x", buckets-1)),
	}
}

// Name returns the strategy name.
func (s *Strategy) Name() string {
	return "fnv32"
}

// Encode returns "<hex bucket>/<cid>".
func (s *Strategy) Encode(c cid.Cid) string {
	str := c.String()
	return s.dir(str) + "/" + str
}

// Decode parses a name produced by Encode. The CID must be in its canonical
// string form; the same CID in another multibase is a foreign name.
func (s *Strategy) Decode(path string) (cid.Cid, error) {
	dir, file, ok := strings.Cut(path, "/")
	if !ok || strings.Contains(file, "/") {
		return cid.Undef, shard.InvalidPathf(path, "want 2 segments")
	}
	c, err := cid.Decode(file)
	if err != nil {
		return cid.Undef, shard.InvalidPathf(path, "%v", err)
	}
	if c.String() != file {
		return cid.Undef, shard.InvalidPathf(path, "non-canonical cid encoding")
	}
	if want := s.dir(file); dir != want {
		return cid.Undef, shard.InvalidPathf(path, "directory %q, want %q", dir, want)
	}
	return c, nil
}

func (s *Strategy) dir(str string) string {
	return fmt.Sprintf("%0*x", s.digits, fnv1a32(str)%s.buckets)
}

// fnv1a32 computes the FNV-1a 32-bit hash of a string.
func fnv1a32(s string) uint32 {
	var h uint32 = 2166136261 // FNV offset basis
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619 // FNV prime
	}
	return h
}

// Package flat implements the identity sharding strategy: every object is
// stored at the root of the container under its CID string.
package flat

import (
	"strings"

	"github.com/ipfs/go-cid"

	"github.com/discochess/blobkeep/shard"
)

// Strategy implements flat naming.
type Strategy struct {
	extension string
}

// Ensure Strategy implements shard.Strategy.
var _ shard.Strategy = (*Strategy)(nil)

// New creates a new flat strategy. ext is appended to every name and may be empty.
func New(ext string) *Strategy {
	return &Strategy{extension: ext}
}

// Name returns the strategy name.
func (s *Strategy) Name() string {
	return "flat"
}

// Encode returns the CID string plus extension.
func (s *Strategy) Encode(c cid.Cid) string {
	return c.String() + s.extension
}

// Decode parses a name produced by Encode. The CID must be in its canonical
// string form; the same CID in another multibase is a foreign name.
func (s *Strategy) Decode(path string) (cid.Cid, error) {
	if strings.Contains(path, "/") {
		return cid.Undef, shard.InvalidPathf(path, "unexpected directory")
	}
	if !strings.HasSuffix(path, s.extension) {
		return cid.Undef, shard.InvalidPathf(path, "missing extension %q", s.extension)
	}
	str := strings.TrimSuffix(path, s.extension)
	c, err := cid.Decode(str)
	if err != nil {
		return cid.Undef, shard.InvalidPathf(path, "%v", err)
	}
	if c.String() != str {
		return cid.Undef, shard.InvalidPathf(path, "non-canonical cid encoding")
	}
	return c, nil
}

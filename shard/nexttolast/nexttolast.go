// Package nexttolast implements the next-to-last sharding strategy.
//
// Objects are spread across directories named after the characters that
// precede the last character of the CID string:
//
//	bafkreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy
//	-> 2z/bafkreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy
//
// The last character of a base32 CID carries only a few bits of entropy, so
// the characters before it make better directory names.
package nexttolast

import (
	"strings"

	"github.com/ipfs/go-cid"

	"github.com/discochess/blobkeep/shard"
)

// DefaultWidth is the default length of the directory segment.
const DefaultWidth = 2

// Strategy implements next-to-last sharding.
type Strategy struct {
	width     int
	extension string
}

// Ensure Strategy implements shard.Strategy.
var _ shard.Strategy = (*Strategy)(nil)

// Option configures a Strategy.
type Option func(*Strategy)

// WithWidth sets the number of characters used for the directory segment.
// Values below 1 are ignored.
func WithWidth(n int) Option {
	return func(s *Strategy) {
		if n > 0 {
			s.width = n
		}
	}
}

// WithExtension appends ext to every object name (e.g. ".data").
func WithExtension(ext string) Option {
	return func(s *Strategy) {
		s.extension = ext
	}
}

// New creates a new next-to-last strategy.
func New(opts ...Option) *Strategy {
	s := &Strategy{width: DefaultWidth}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the strategy name.
func (s *Strategy) Name() string {
	return "next-to-last"
}

// Encode returns "<dir>/<cid><ext>".
func (s *Strategy) Encode(c cid.Cid) string {
	str := c.String()
	return s.dir(str) + "/" + str + s.extension
}

// Decode parses a name produced by Encode. The CID must be in its canonical
// string form; the same CID in another multibase is a foreign name.
func (s *Strategy) Decode(path string) (cid.Cid, error) {
	segments := strings.Split(path, "/")
	if len(segments) != 2 {
		return cid.Undef, shard.InvalidPathf(path, "want 2 segments, got %d", len(segments))
	}
	dir, file := segments[0], segments[1]

	if !strings.HasSuffix(file, s.extension) {
		return cid.Undef, shard.InvalidPathf(path, "missing extension %q", s.extension)
	}
	str := strings.TrimSuffix(file, s.extension)

	c, err := cid.Decode(str)
	if err != nil {
		return cid.Undef, shard.InvalidPathf(path, "%v", err)
	}
	if c.String() != str {
		return cid.Undef, shard.InvalidPathf(path, "non-canonical cid encoding")
	}
	if want := s.dir(str); dir != want {
		return cid.Undef, shard.InvalidPathf(path, "directory %q, want %q", dir, want)
	}
	return c, nil
}

// dir returns the width characters before the last character of str,
// left-padding short strings with '_'.
func (s *Strategy) dir(str string) string {
	if n := s.width + 1 - len(str); n > 0 {
		str = strings.Repeat("_", n) + str
	}
	offset := len(str) - s.width - 1
	return str[offset : offset+s.width]
}

// Package shard defines the sharding strategy interface for mapping content
// identifiers to object names in a blob container.
package shard

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
)

// ErrInvalidPath is returned by Decode when an object name was not produced
// by the strategy (foreign data in the container).
var ErrInvalidPath = errors.New("shard: invalid path")

// Strategy defines a deterministic, invertible mapping between CIDs and
// object names.
type Strategy interface {
	// Name returns a human-readable name for this strategy.
	Name() string

	// Encode returns the object name for c.
	// The result depends only on c and the strategy configuration.
	Encode(c cid.Cid) string

	// Decode recovers the CID from an object name produced by Encode.
	// Names of any other shape fail with an error wrapping ErrInvalidPath.
	Decode(path string) (cid.Cid, error)
}

// InvalidPathf returns an error wrapping ErrInvalidPath for path.
func InvalidPathf(path, format string, args ...any) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidPath, path, fmt.Sprintf(format, args...))
}

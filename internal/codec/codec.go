// Package codec provides compression and decompression for object payloads.
package codec

import "io"

// Codec provides compression and decompression functionality.
type Codec interface {
	// Name identifies the codec ("zstd", "gzip", "none").
	Name() string
	// Reader wraps r to decompress data read from it.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to compress data written to it.
	Writer(w io.Writer) (io.WriteCloser, error)
}

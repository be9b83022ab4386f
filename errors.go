package blobkeep

import (
	"errors"
	"fmt"

	"github.com/discochess/blobkeep/objectstore"
)

// Sentinel errors for well-defined error conditions. Every failure returned
// by a Blockstore or Datastore operation is an *OpError whose Kind is one of
// these, so callers can match with errors.Is.
var (
	// ErrInvalidConfig indicates a missing client, container name or strategy.
	ErrInvalidConfig = objectstore.ErrInvalidConfig

	// ErrNotFound indicates the object does not exist.
	ErrNotFound = errors.New("blobkeep: not found")

	// ErrWriteFailed indicates the backend rejected an upload.
	ErrWriteFailed = errors.New("blobkeep: write failed")

	// ErrDeleteFailed indicates the backend rejected a delete.
	ErrDeleteFailed = errors.New("blobkeep: delete failed")

	// ErrOpenFailed indicates the container is missing or could not be created.
	ErrOpenFailed = errors.New("blobkeep: open failed")

	// ErrBackend indicates an uncategorized backend failure.
	ErrBackend = errors.New("blobkeep: backend error")

	// ErrDecode indicates a listed object name was not written by this store.
	ErrDecode = errors.New("blobkeep: malformed object name")

	// ErrCancelled indicates the operation's context was done before it completed.
	ErrCancelled = errors.New("blobkeep: cancelled")

	// ErrMissingBody indicates the backend reported a successful download
	// without a readable body.
	ErrMissingBody = errors.New("blobkeep: backend returned no body")

	// ErrNotOpened indicates a data operation before a successful Open.
	ErrNotOpened = errors.New("blobkeep: store not opened")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("blobkeep: store closed")
)

// OpError describes a failed operation.
type OpError struct {
	// Op is the operation name ("put", "get", "has", "delete", "list", "open").
	Op string
	// Key is the object name involved, if any.
	Key string
	// Kind is one of the package sentinel errors.
	Kind error
	// Err is the underlying cause. It may be nil.
	Err error
}

func (e *OpError) Error() string {
	msg := e.Kind.Error()
	if e.Key != "" {
		msg = fmt.Sprintf("%s %q: %s", e.Op, e.Key, msg)
	} else {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the kind and the cause.
func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

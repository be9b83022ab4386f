package blobkeep

import (
	"context"
	"errors"
	"path"
	"strings"

	ds "github.com/ipfs/go-datastore"

	"github.com/discochess/blobkeep/objectstore"
)

// ErrInvalidKey indicates a key that maps to an empty object name.
var ErrInvalidKey = errors.New("blobkeep: invalid key")

// Datastore stores values keyed by datastore keys. Object names are the key
// path joined under an optional namespace path, without a leading slash:
// with WithPath("ipfs"), key /blocks/x is stored as "ipfs/blocks/x".
// A Datastore is safe for concurrent use by multiple goroutines.
type Datastore struct {
	a    *adapter
	base string // namespace with trailing slash, or empty
}

// NewDatastore creates a Datastore on top of client.
// The client is not owned: Close does not close it.
// Open must succeed before any other operation.
func NewDatastore(client objectstore.Store, opts ...Option) (*Datastore, error) {
	a, err := newAdapter(client, "datastore", opts)
	if err != nil {
		return nil, err
	}

	d := &Datastore{a: a}
	if ns := strings.TrimPrefix(path.Join("/", a.opts.path), "/"); ns != "" {
		d.base = ns + "/"
	}
	return d, nil
}

// Open checks that the container exists, creating it when allowed.
// See Blockstore.Open.
func (d *Datastore) Open(ctx context.Context) error {
	return d.a.open(ctx)
}

// Close marks the store closed. Later operations fail with ErrClosed.
func (d *Datastore) Close() error {
	return d.a.close()
}

// Put stores value under key, overwriting any previous value, and returns key.
func (d *Datastore) Put(ctx context.Context, key ds.Key, value []byte) (ds.Key, error) {
	name, err := d.objectName("put", key)
	if err != nil {
		return ds.Key{}, err
	}
	if err := d.a.put(ctx, name, value); err != nil {
		return ds.Key{}, err
	}
	return key, nil
}

// Get returns the value stored under key, or an error wrapping ErrNotFound.
func (d *Datastore) Get(ctx context.Context, key ds.Key) ([]byte, error) {
	name, err := d.objectName("get", key)
	if err != nil {
		return nil, err
	}
	return d.a.get(ctx, name)
}

// Has reports whether a value is stored under key.
func (d *Datastore) Has(ctx context.Context, key ds.Key) (bool, error) {
	name, err := d.objectName("has", key)
	if err != nil {
		return false, err
	}
	return d.a.has(ctx, name)
}

// Delete removes the value stored under key. Deleting a missing key succeeds.
func (d *Datastore) Delete(ctx context.Context, key ds.Key) error {
	name, err := d.objectName("delete", key)
	if err != nil {
		return err
	}
	return d.a.delete(ctx, name)
}

// Query selects entries for Datastore.Query.
type Query struct {
	// Prefix restricts results to keys below this key. It matches whole
	// path segments: "/blocks" selects "/blocks/a" but not "/blocksx/a".
	Prefix string
	// KeysOnly skips downloading values.
	KeysOnly bool
}

// Entry is a key/value pair returned by Query. Value is nil for KeysOnly queries.
type Entry struct {
	Key   ds.Key
	Value []byte
}

// Query lists entries in the namespace, in backend order. Entries deleted
// between listing and download are skipped.
func (d *Datastore) Query(ctx context.Context, q Query) *Iterator[Entry] {
	prefix := d.base
	if p := strings.Trim(path.Clean("/"+q.Prefix), "/"); p != "" {
		prefix += p + "/"
	}

	return newIterator(func(yield func(Entry, error) bool) {
		for name, err := range d.a.names(ctx, prefix) {
			if err != nil {
				yield(Entry{}, err)
				return
			}

			e := Entry{Key: ds.NewKey(strings.TrimPrefix(name, d.base))}
			if !q.KeysOnly {
				e.Value, err = d.a.get(ctx, name)
				if errors.Is(err, ErrNotFound) {
					continue
				}
				if err != nil {
					yield(Entry{}, err)
					return
				}
			}

			if !yield(e, nil) {
				return
			}
		}
	})
}

// objectName maps key to its object name.
func (d *Datastore) objectName(op string, key ds.Key) (string, error) {
	name := strings.TrimPrefix(path.Join("/", d.base, key.String()), "/")
	if name == "" || name+"/" == d.base {
		return "", &OpError{Op: op, Key: key.String(), Kind: ErrInvalidKey}
	}
	return name, nil
}

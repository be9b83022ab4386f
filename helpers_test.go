package blobkeep

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/discochess/blobkeep/objectstore"
	"github.com/discochess/blobkeep/objectstore/memstore"
)

// testCID returns the CIDv1 (raw codec) of data.
func testCID(t testing.TB, data []byte) cid.Cid {
	t.Helper()
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		t.Fatalf("multihash.Sum() error = %v", err)
	}
	return cid.NewCidV1(cid.Raw, mh)
}

// faultyStore wraps a memstore, letting tests replace individual calls.
type faultyStore struct {
	*memstore.Store

	upload              func(ctx context.Context, name string, data []byte) error
	download            func(ctx context.Context, name string) (io.ReadCloser, error)
	exists              func(ctx context.Context, name string) (bool, error)
	deleteIfExists      func(ctx context.Context, name string) error
	containerProperties func(ctx context.Context) error

	mu      sync.Mutex
	created int
	closed  int
}

var _ objectstore.Store = (*faultyStore)(nil)

func newFaultyStore(opts ...memstore.Option) *faultyStore {
	return &faultyStore{Store: memstore.New("test", opts...)}
}

func (f *faultyStore) Upload(ctx context.Context, name string, data []byte) error {
	if f.upload != nil {
		return f.upload(ctx, name, data)
	}
	return f.Store.Upload(ctx, name, data)
}

func (f *faultyStore) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	if f.download != nil {
		return f.download(ctx, name)
	}
	return f.Store.Download(ctx, name)
}

func (f *faultyStore) Exists(ctx context.Context, name string) (bool, error) {
	if f.exists != nil {
		return f.exists(ctx, name)
	}
	return f.Store.Exists(ctx, name)
}

func (f *faultyStore) DeleteIfExists(ctx context.Context, name string) error {
	if f.deleteIfExists != nil {
		return f.deleteIfExists(ctx, name)
	}
	return f.Store.DeleteIfExists(ctx, name)
}

func (f *faultyStore) ContainerProperties(ctx context.Context) error {
	if f.containerProperties != nil {
		return f.containerProperties(ctx)
	}
	return f.Store.ContainerProperties(ctx)
}

func (f *faultyStore) CreateContainer(ctx context.Context) error {
	f.mu.Lock()
	f.created++
	f.mu.Unlock()
	return f.Store.CreateContainer(ctx)
}

func (f *faultyStore) Close() error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	return nil
}

// recordingCollector counts metrics for assertions.
type recordingCollector struct {
	mu       sync.Mutex
	counters map[string]int64
	observed map[string][]float64
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{
		counters: make(map[string]int64),
		observed: make(map[string][]float64),
	}
}

func (c *recordingCollector) IncCounter(name string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name] += delta
}

func (c *recordingCollector) SetGauge(name string, value int64) {}

func (c *recordingCollector) ObserveHistogram(name string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observed[name] = append(c.observed[name], value)
}

func (c *recordingCollector) counter(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[name]
}

func openBlockstore(t *testing.T, client objectstore.Store, opts ...Option) *Blockstore {
	t.Helper()
	bs, err := NewBlockstore(client, opts...)
	if err != nil {
		t.Fatalf("NewBlockstore() error = %v", err)
	}
	if err := bs.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return bs
}

func openDatastore(t *testing.T, client objectstore.Store, opts ...Option) *Datastore {
	t.Helper()
	d, err := NewDatastore(client, opts...)
	if err != nil {
		t.Fatalf("NewDatastore() error = %v", err)
	}
	if err := d.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return d
}

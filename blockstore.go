// Package blobkeep adapts the content-addressed blockstore and key/value
// datastore contracts onto cloud blob storage.
//
// Example usage:
//
//	client, err := azblobstore.NewFromConnectionString(connStr, "blocks")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	bs, err := blobkeep.NewBlockstore(client, blobkeep.WithCreateIfMissing(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := bs.Open(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer bs.Close()
//
//	if _, err := bs.Put(ctx, c, data); err != nil {
//	    log.Fatal(err)
//	}
package blobkeep

import (
	"context"
	"errors"
	"iter"

	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	"go.uber.org/zap"

	"github.com/discochess/blobkeep/internal/stats"
	"github.com/discochess/blobkeep/objectstore"
	"github.com/discochess/blobkeep/shard"
)

// Blockstore stores blocks keyed by CID, one object per block, named by a
// sharding strategy. A Blockstore is safe for concurrent use by multiple
// goroutines; it holds no mutable state besides its lifecycle.
type Blockstore struct {
	a        *adapter
	strategy shard.Strategy
}

// NewBlockstore creates a Blockstore on top of client.
// The client is not owned: Close does not close it.
// Open must succeed before any other operation.
func NewBlockstore(client objectstore.Store, opts ...Option) (*Blockstore, error) {
	a, err := newAdapter(client, "blockstore", opts)
	if err != nil {
		return nil, err
	}
	return &Blockstore{a: a, strategy: a.opts.shardStrategy}, nil
}

// Open checks that the container exists. If it does not and the store was
// created WithCreateIfMissing(true), the container is created; otherwise
// Open fails with ErrOpenFailed. Calling Open again is harmless.
func (b *Blockstore) Open(ctx context.Context) error {
	return b.a.open(ctx)
}

// Close marks the store closed. Later operations fail with ErrClosed.
func (b *Blockstore) Close() error {
	return b.a.close()
}

// ShardStrategy returns the strategy used to name objects.
func (b *Blockstore) ShardStrategy() shard.Strategy {
	return b.strategy
}

// Put stores data under c, overwriting any previous object, and returns c.
func (b *Blockstore) Put(ctx context.Context, c cid.Cid, data []byte) (cid.Cid, error) {
	if err := b.a.put(ctx, b.strategy.Encode(c), data); err != nil {
		return cid.Undef, err
	}
	return c, nil
}

// PutMany stores blocks one by one, stopping at the first failure.
func (b *Blockstore) PutMany(ctx context.Context, blks []blocks.Block) error {
	for _, blk := range blks {
		if _, err := b.Put(ctx, blk.Cid(), blk.RawData()); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the data stored under c, or an error wrapping ErrNotFound.
func (b *Blockstore) Get(ctx context.Context, c cid.Cid) ([]byte, error) {
	return b.a.get(ctx, b.strategy.Encode(c))
}

// Has reports whether a block is stored under c. Missing and forbidden
// objects both report false.
func (b *Blockstore) Has(ctx context.Context, c cid.Cid) (bool, error) {
	return b.a.has(ctx, b.strategy.Encode(c))
}

// Delete removes the block stored under c. Deleting a missing block succeeds.
func (b *Blockstore) Delete(ctx context.Context, c cid.Cid) error {
	return b.a.delete(ctx, b.strategy.Encode(c))
}

// AllKeys lists the CIDs of all blocks in the container without downloading them.
func (b *Blockstore) AllKeys(ctx context.Context) *Iterator[cid.Cid] {
	return newIterator(func(yield func(cid.Cid, error) bool) {
		for e, err := range b.entries(ctx) {
			if !yield(e.cid, err) || err != nil {
				return
			}
		}
	})
}

// AllBlocks lists and downloads every block in the container, in backend
// order. Blocks deleted between listing and download are skipped.
func (b *Blockstore) AllBlocks(ctx context.Context) *Iterator[blocks.Block] {
	return newIterator(func(yield func(blocks.Block, error) bool) {
		for e, err := range b.entries(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}

			data, err := b.a.get(ctx, e.name)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				yield(nil, err)
				return
			}

			blk, err := blocks.NewBlockWithCid(data, e.cid)
			if err != nil {
				yield(nil, &OpError{Op: "list", Key: e.name, Kind: ErrBackend, Err: err})
				return
			}
			if !yield(blk, nil) {
				return
			}
		}
	})
}

type blockEntry struct {
	name string
	cid  cid.Cid
}

// entries decodes listed names, applying the decode policy.
func (b *Blockstore) entries(ctx context.Context) iter.Seq2[blockEntry, error] {
	return func(yield func(blockEntry, error) bool) {
		for name, err := range b.a.names(ctx, "") {
			if err != nil {
				yield(blockEntry{}, err)
				return
			}

			c, err := b.strategy.Decode(name)
			if err != nil {
				b.a.stats.IncCounter(stats.MetricMalformedNames, 1)
				if b.a.opts.decodePolicy == AbortOnMalformed {
					yield(blockEntry{}, b.a.fail(ctx, "list", name, ErrDecode, err))
					return
				}
				b.a.logger.Warn("skipping foreign object", zap.String("key", name), zap.Error(err))
				continue
			}

			if !yield(blockEntry{name: name, cid: c}, nil) {
				return
			}
		}
	}
}

// Package azureblobkeepfx provides an fx module for a blockstore backed by
// Azure Blob Storage.
package azureblobkeepfx

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/blobkeep"
	"github.com/discochess/blobkeep/internal/stats"
	statsprom "github.com/discochess/blobkeep/internal/stats/prometheus"
	"github.com/discochess/blobkeep/objectstore"
	"github.com/discochess/blobkeep/objectstore/azblobstore"
	"github.com/discochess/blobkeep/objectstore/cachedstore"
	"github.com/discochess/blobkeep/objectstore/cachedstore/cachestrategy/lru"
	"github.com/discochess/blobkeep/objectstore/cachedstore/memory"
	"github.com/discochess/blobkeep/objectstore/codecstore"
)

// Config holds configuration for the Azure-backed blockstore.
type Config struct {
	// ConnectionString is the storage account connection string.
	ConnectionString string

	// Container is the blob container holding the blocks.
	Container string

	// CreateIfMissing creates the container on start if it does not exist.
	CreateIfMissing bool

	// ShardStrategy names the sharding strategy. Default is "next-to-last".
	ShardStrategy string

	// Codec names the payload codec ("zstd", "gzip", "none"). Default is "none".
	Codec string

	// CacheSize is the number of blocks to cache in memory. Zero disables
	// the cache.
	CacheSize int
}

// Module provides an opened *blobkeep.Blockstore.
// Requires a Config, a *zap.Logger and a prometheus.Registerer to be provided.
var Module = fx.Module("azureblobkeep",
	fx.Provide(
		newStatsCollector,
		newBlockstore,
	),
)

func newStatsCollector(reg prometheus.Registerer) stats.Collector {
	return statsprom.New(reg)
}

// Params holds dependencies for creating the blockstore.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided blockstore.
type Result struct {
	fx.Out

	Blockstore *blobkeep.Blockstore
}

func newBlockstore(p Params) (Result, error) {
	client, err := azblobstore.NewFromConnectionString(p.Config.ConnectionString, p.Config.Container, nil)
	if err != nil {
		return Result{}, err
	}

	st, err := wrap(client, p.Config, p.Collector)
	if err != nil {
		return Result{}, err
	}

	strategy, err := blobkeep.ShardStrategyByName(p.Config.ShardStrategy)
	if err != nil {
		return Result{}, err
	}

	bs, err := blobkeep.NewBlockstore(st,
		blobkeep.WithCreateIfMissing(p.Config.CreateIfMissing),
		blobkeep.WithShardStrategy(strategy),
		blobkeep.WithStats(p.Collector),
		blobkeep.WithLogger(p.Logger.Named("blobkeep")),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return bs.Open(ctx)
		},
		OnStop: func(ctx context.Context) error {
			bs.Close()
			return st.Close()
		},
	})

	return Result{Blockstore: bs}, nil
}

// wrap layers the codec and cache decorators over client. The cache holds
// decompressed payloads.
func wrap(client objectstore.Store, cfg Config, collector stats.Collector) (objectstore.Store, error) {
	var st objectstore.Store = client
	if cfg.Codec != "" && cfg.Codec != "none" {
		cs, err := codecstore.NewByName(st, cfg.Codec)
		if err != nil {
			return nil, err
		}
		st = cs
	}
	if cfg.CacheSize > 0 {
		strategy, err := lru.New(cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		st = cachedstore.New(st, memory.New(strategy, collector))
	}
	return st, nil
}

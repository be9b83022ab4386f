// Package memoryblobkeepfx provides an fx module for an in-memory blockstore
// and datastore. Useful for testing.
package memoryblobkeepfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/blobkeep"
	"github.com/discochess/blobkeep/internal/stats"
	"github.com/discochess/blobkeep/internal/stats/logger"
	"github.com/discochess/blobkeep/objectstore/memstore"
)

// Module provides an opened *blobkeep.Blockstore and *blobkeep.Datastore
// sharing one in-memory container.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("memoryblobkeep",
	fx.Provide(
		newStatsCollector,
		newMemStore,
		newStores,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("blobkeep.stats"))
}

func newMemStore() *memstore.Store {
	return memstore.New("memory")
}

// Params holds dependencies for creating the stores.
type Params struct {
	fx.In

	Logger    *zap.Logger
	Collector stats.Collector
	Store     *memstore.Store
	Lifecycle fx.Lifecycle
}

// Result holds the provided stores.
type Result struct {
	fx.Out

	Blockstore *blobkeep.Blockstore
	Datastore  *blobkeep.Datastore
	Store      *memstore.Store // Exposed for test setup
}

func newStores(p Params) (Result, error) {
	opts := []blobkeep.Option{
		blobkeep.WithStats(p.Collector),
		blobkeep.WithLogger(p.Logger.Named("blobkeep")),
	}

	bs, err := blobkeep.NewBlockstore(p.Store, opts...)
	if err != nil {
		return Result{}, err
	}
	dstore, err := blobkeep.NewDatastore(p.Store, append(opts, blobkeep.WithPath("datastore"))...)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := bs.Open(ctx); err != nil {
				return err
			}
			return dstore.Open(ctx)
		},
		OnStop: func(ctx context.Context) error {
			// The datastore may never have opened if the blockstore failed.
			bs.Close()
			dstore.Close()
			return nil
		},
	})

	return Result{
		Blockstore: bs,
		Datastore:  dstore,
		Store:      p.Store,
	}, nil
}

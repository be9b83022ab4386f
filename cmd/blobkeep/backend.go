package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/discochess/blobkeep"
	"github.com/discochess/blobkeep/objectstore"
	"github.com/discochess/blobkeep/objectstore/azblobstore"
	"github.com/discochess/blobkeep/objectstore/cachedstore"
	"github.com/discochess/blobkeep/objectstore/cachedstore/cachestrategy/lru"
	"github.com/discochess/blobkeep/objectstore/cachedstore/memory"
	"github.com/discochess/blobkeep/objectstore/codecstore"
	"github.com/discochess/blobkeep/objectstore/diskstore"
	"github.com/discochess/blobkeep/objectstore/gcsstore"
	"github.com/discochess/blobkeep/objectstore/memstore"
	"github.com/discochess/blobkeep/objectstore/s3store"
)

// memStores keeps "mem" containers alive for the life of the process.
var (
	memMu     sync.Mutex
	memStores = map[string]*memstore.Store{}
)

// newObjectStore builds the configured backend and its decorators.
func newObjectStore(ctx context.Context) (objectstore.Store, error) {
	container := viper.GetString("container")

	var (
		st  objectstore.Store
		err error
	)
	switch backend := viper.GetString("backend"); backend {
	case "azure":
		st, err = azblobstore.NewFromConnectionString(viper.GetString("azure_connection_string"), container, nil)
	case "s3":
		var opts []s3store.Option
		if r := viper.GetString("s3_region"); r != "" {
			opts = append(opts, s3store.WithRegion(r))
		}
		if e := viper.GetString("s3_endpoint"); e != "" {
			opts = append(opts, s3store.WithEndpoint(e))
		}
		opts = append(opts, s3store.WithPrefix(viper.GetString("s3_prefix")))
		st, err = s3store.New(ctx, container, opts...)
	case "gcs":
		st, err = gcsstore.New(ctx, container,
			gcsstore.WithProjectID(viper.GetString("gcs_project")),
			gcsstore.WithPrefix(viper.GetString("gcs_prefix")),
		)
	case "disk":
		st, err = diskstore.New(container)
	case "mem":
		st = memContainer(container)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", objectstore.ErrInvalidConfig, backend)
	}
	if err != nil {
		return nil, err
	}

	if c := viper.GetString("codec"); c != "" && c != "none" {
		if st, err = codecstore.NewByName(st, c); err != nil {
			return nil, err
		}
	}
	if n := viper.GetInt("cache_size"); n > 0 {
		strategy, err := lru.New(n)
		if err != nil {
			return nil, fmt.Errorf("creating LRU strategy: %w", err)
		}
		st = cachedstore.New(st, memory.New(strategy, nil))
	}
	return st, nil
}

func memContainer(name string) *memstore.Store {
	memMu.Lock()
	defer memMu.Unlock()
	if st, ok := memStores[name]; ok {
		return st
	}
	st := memstore.New(name, memstore.WithContainer(false))
	memStores[name] = st
	return st
}

func newLogger() (*zap.Logger, error) {
	if viper.GetBool("verbose") {
		return zap.NewDevelopment()
	}
	return zap.NewNop(), nil
}

// storeOptions returns the adapter options shared by both store kinds.
func storeOptions(log *zap.Logger) ([]blobkeep.Option, error) {
	strategy, err := blobkeep.ShardStrategyByName(viper.GetString("shard"))
	if err != nil {
		return nil, err
	}
	policy := blobkeep.SkipMalformed
	if viper.GetBool("strict") {
		policy = blobkeep.AbortOnMalformed
	}
	return []blobkeep.Option{
		blobkeep.WithCreateIfMissing(viper.GetBool("create")),
		blobkeep.WithShardStrategy(strategy),
		blobkeep.WithDecodePolicy(policy),
		blobkeep.WithPath(viper.GetString("namespace")),
		blobkeep.WithLogger(log),
	}, nil
}

// session holds an opened store and the resources backing it.
type session struct {
	client objectstore.Store
	log    *zap.Logger
	opts   []blobkeep.Option
}

func newSession(ctx context.Context) (*session, error) {
	log, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	opts, err := storeOptions(log)
	if err != nil {
		return nil, err
	}
	client, err := newObjectStore(ctx)
	if err != nil {
		return nil, err
	}
	return &session{client: client, log: log, opts: opts}, nil
}

func (s *session) blockstore(ctx context.Context) (*blobkeep.Blockstore, error) {
	bs, err := blobkeep.NewBlockstore(s.client, s.opts...)
	if err != nil {
		return nil, err
	}
	if err := bs.Open(ctx); err != nil {
		return nil, err
	}
	return bs, nil
}

func (s *session) datastore(ctx context.Context) (*blobkeep.Datastore, error) {
	d, err := blobkeep.NewDatastore(s.client, s.opts...)
	if err != nil {
		return nil, err
	}
	if err := d.Open(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *session) Close() error {
	s.log.Sync()
	return s.client.Close()
}

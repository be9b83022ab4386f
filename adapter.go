package blobkeep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/discochess/blobkeep/internal/stats"
	"github.com/discochess/blobkeep/objectstore"
)

// Lifecycle states of a store.
const (
	stateUnopened int32 = iota
	stateOpened
	stateClosed
)

// adapter implements the generic store contract on object names. Blockstore
// and Datastore only differ in how they derive names from keys.
// The adapter never caches objects: every call round-trips to the client.
type adapter struct {
	client objectstore.Store
	opts   options
	stats  stats.Collector
	logger *zap.Logger
	state  atomic.Int32
}

func newAdapter(client objectstore.Store, name string, opts []Option) (*adapter, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if client == nil {
		return nil, fmt.Errorf("%w: an object store client must be supplied", ErrInvalidConfig)
	}
	if client.Name() == "" {
		return nil, fmt.Errorf("%w: a container name must be supplied", ErrInvalidConfig)
	}
	if cfg.shardStrategy == nil {
		return nil, fmt.Errorf("%w: nil shard strategy", ErrInvalidConfig)
	}

	a := &adapter{
		client: client,
		opts:   cfg,
		stats:  cfg.stats,
		logger: cfg.logger.Named(name).With(zap.String("container", client.Name())),
	}

	a.logger.Debug("store initialized",
		zap.Bool("createIfMissing", cfg.createIfMissing),
		zap.String("shardStrategy", cfg.shardStrategy.Name()),
		zap.Stringer("decodePolicy", cfg.decodePolicy),
	)

	return a, nil
}

// ready returns an error unless the store is open.
func (a *adapter) ready(op string) error {
	switch a.state.Load() {
	case stateOpened:
		return nil
	case stateUnopened:
		return &OpError{Op: op, Kind: ErrNotOpened}
	default:
		return &OpError{Op: op, Kind: ErrClosed}
	}
}

// fail builds the OpError for a failed call. A done context always
// classifies as ErrCancelled, whatever the backend reported.
func (a *adapter) fail(ctx context.Context, op, name string, kind, cause error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		kind = ErrCancelled
		if cause == nil {
			cause = ctxErr
		} else if !errors.Is(cause, ctxErr) {
			cause = fmt.Errorf("%w: %w", ctxErr, cause)
		}
	}

	err := &OpError{Op: op, Key: name, Kind: kind, Err: cause}

	switch kind {
	case ErrNotFound, ErrCancelled:
		a.logger.Debug("operation ended", zap.String("op", op), zap.String("key", name), zap.Error(err))
	default:
		a.stats.IncCounter(stats.MetricErrors, 1)
		a.logger.Warn("operation failed", zap.String("op", op), zap.String("key", name), zap.Error(err))
	}
	return err
}

func (a *adapter) put(ctx context.Context, name string, data []byte) error {
	if err := a.ready("put"); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return a.fail(ctx, "put", name, ErrCancelled, nil)
	}

	if err := a.client.Upload(ctx, name, data); err != nil {
		return a.fail(ctx, "put", name, ErrWriteFailed, err)
	}

	a.stats.IncCounter(stats.MetricPuts, 1)
	a.stats.ObserveHistogram(stats.MetricPutBytes, float64(len(data)))
	return nil
}

func (a *adapter) get(ctx context.Context, name string) ([]byte, error) {
	if err := a.ready("get"); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, a.fail(ctx, "get", name, ErrCancelled, nil)
	}

	body, err := a.client.Download(ctx, name)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			a.stats.IncCounter(stats.MetricGetMisses, 1)
			return nil, a.fail(ctx, "get", name, ErrNotFound, err)
		}
		return nil, a.fail(ctx, "get", name, ErrBackend, err)
	}
	if body == nil {
		return nil, a.fail(ctx, "get", name, ErrMissingBody, nil)
	}
	defer body.Close()

	// Consume the whole stream so callers never see a partial object.
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, a.fail(ctx, "get", name, ErrBackend, fmt.Errorf("reading body: %w", err))
	}

	a.stats.IncCounter(stats.MetricGets, 1)
	a.stats.ObserveHistogram(stats.MetricGetBytes, float64(len(data)))
	return data, nil
}

func (a *adapter) has(ctx context.Context, name string) (bool, error) {
	if err := a.ready("has"); err != nil {
		return false, err
	}
	if ctx.Err() != nil {
		return false, a.fail(ctx, "has", name, ErrCancelled, nil)
	}
	a.stats.IncCounter(stats.MetricHas, 1)

	ok, err := a.client.Exists(ctx, name)
	if err != nil {
		// A restricted access policy reports missing objects as forbidden.
		if ctx.Err() == nil && (errors.Is(err, objectstore.ErrNotFound) || errors.Is(err, objectstore.ErrForbidden)) {
			return false, nil
		}
		return false, a.fail(ctx, "has", name, ErrBackend, err)
	}
	return ok, nil
}

func (a *adapter) delete(ctx context.Context, name string) error {
	if err := a.ready("delete"); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return a.fail(ctx, "delete", name, ErrCancelled, nil)
	}

	err := a.client.DeleteIfExists(ctx, name)
	if err != nil && (ctx.Err() != nil || !errors.Is(err, objectstore.ErrNotFound)) {
		return a.fail(ctx, "delete", name, ErrDeleteFailed, err)
	}

	a.stats.IncCounter(stats.MetricDeletes, 1)
	return nil
}

// names yields object names under prefix, checking for cancellation before
// every name.
func (a *adapter) names(ctx context.Context, prefix string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := a.ready("list"); err != nil {
			yield("", err)
			return
		}

		for name, err := range a.client.List(ctx, prefix) {
			if err != nil {
				yield("", a.fail(ctx, "list", "", ErrBackend, err))
				return
			}
			if ctx.Err() != nil {
				yield("", a.fail(ctx, "list", "", ErrCancelled, nil))
				return
			}
			a.stats.IncCounter(stats.MetricListed, 1)
			if !yield(name, nil) {
				return
			}
		}

		// The backend may stop early on a done context without reporting it.
		if ctx.Err() != nil {
			yield("", a.fail(ctx, "list", "", ErrCancelled, nil))
		}
	}
}

// open checks that the container exists, creating it when allowed.
// It never creates the container after a probe failure other than not-found.
func (a *adapter) open(ctx context.Context) error {
	if a.state.Load() == stateClosed {
		return &OpError{Op: "open", Kind: ErrClosed}
	}

	err := a.client.ContainerProperties(ctx)
	switch {
	case err == nil:
	case !errors.Is(err, objectstore.ErrNotFound) || ctx.Err() != nil:
		return a.fail(ctx, "open", a.client.Name(), ErrOpenFailed, err)
	case !a.opts.createIfMissing:
		return a.fail(ctx, "open", a.client.Name(), ErrOpenFailed, err)
	default:
		if err := a.client.CreateContainer(ctx); err != nil {
			return a.fail(ctx, "open", a.client.Name(), ErrOpenFailed, fmt.Errorf("creating container: %w", err))
		}
		a.logger.Info("container created")
	}

	if !a.state.CompareAndSwap(stateUnopened, stateOpened) && a.state.Load() == stateClosed {
		return &OpError{Op: "open", Kind: ErrClosed}
	}
	return nil
}

// close moves the store to the closed state. The client is not closed: it
// belongs to the caller.
func (a *adapter) close() error {
	for {
		s := a.state.Load()
		if s == stateClosed {
			return &OpError{Op: "close", Kind: ErrClosed}
		}
		if a.state.CompareAndSwap(s, stateClosed) {
			return nil
		}
	}
}

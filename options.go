package blobkeep

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/discochess/blobkeep/internal/stats"
	"github.com/discochess/blobkeep/shard"
	"github.com/discochess/blobkeep/shard/flat"
	"github.com/discochess/blobkeep/shard/hashprefix"
	"github.com/discochess/blobkeep/shard/nexttolast"
)

// DecodePolicy controls what listing does with object names the sharding
// strategy cannot decode.
type DecodePolicy int

const (
	// SkipMalformed logs and skips foreign names. This is the default.
	SkipMalformed DecodePolicy = iota
	// AbortOnMalformed ends iteration with an error wrapping ErrDecode.
	AbortOnMalformed
)

func (p DecodePolicy) String() string {
	switch p {
	case SkipMalformed:
		return "skip"
	case AbortOnMalformed:
		return "abort"
	default:
		return fmt.Sprintf("DecodePolicy(%d)", int(p))
	}
}

// Option configures a Blockstore or Datastore.
type Option interface {
	apply(*options)
}

// options holds the store configuration. It is immutable after construction.
type options struct {
	createIfMissing bool
	shardStrategy   shard.Strategy
	path            string
	decodePolicy    DecodePolicy
	stats           stats.Collector
	logger          *zap.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		shardStrategy: nexttolast.New(),
		decodePolicy:  SkipMalformed,
		stats:         stats.NewNoop(),
		logger:        zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithCreateIfMissing makes Open create the container when it does not exist.
// Default is false: Open fails with ErrOpenFailed instead.
func WithCreateIfMissing(create bool) Option {
	return optionFunc(func(o *options) {
		o.createIfMissing = create
	})
}

// WithShardStrategy sets how a Blockstore maps CIDs to object names.
// If not set, next-to-last sharding is used.
func WithShardStrategy(s shard.Strategy) Option {
	return optionFunc(func(o *options) {
		o.shardStrategy = s
	})
}

// WithPath sets the namespace path a Datastore prefixes to every key.
func WithPath(path string) Option {
	return optionFunc(func(o *options) {
		o.path = path
	})
}

// WithDecodePolicy sets how listing treats names it cannot decode.
func WithDecodePolicy(p DecodePolicy) Option {
	return optionFunc(func(o *options) {
		o.decodePolicy = p
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		if c != nil {
			o.stats = c
		}
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		if l != nil {
			o.logger = l
		}
	})
}

// ShardStrategyByName returns the built-in strategy with the given name,
// as reported by its Name method.
func ShardStrategyByName(name string) (shard.Strategy, error) {
	switch name {
	case "next-to-last", "":
		return nexttolast.New(), nil
	case "flat":
		return flat.New(""), nil
	case "fnv32":
		return hashprefix.New(hashprefix.DefaultBuckets), nil
	default:
		return nil, fmt.Errorf("%w: unknown shard strategy %q", ErrInvalidConfig, name)
	}
}

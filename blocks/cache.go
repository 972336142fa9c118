package blocks

import (
	"context"
	"time"

	"github.com/BaSui01/blockflow/internal/cache"
	"github.com/BaSui01/blockflow/types"
)

// =============================================================================
// cache_get
// =============================================================================

type cacheGetBlock struct {
	cache *cache.Manager
	cfg   CacheGetConfig
}

func (e *env) newCacheGet(cfg CacheGetConfig) (types.Block, error) {
	if e.cache == nil {
		return nil, types.NewError(types.ErrBuild, "cache_get: no cache configured")
	}
	return &cacheGetBlock{cache: e.cache, cfg: cfg}, nil
}

// Execute looks up the configured key, or the key carried by the input. A
// miss yields the configured default, else Empty.
func (b *cacheGetBlock) Execute(ctx context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	key := b.cfg.Key
	if key == "" {
		k, ok := scalarText(in)
		if !ok || k == "" {
			return types.ExecutionResult{}, types.NewError(types.ErrInputMissing, "cache_get: no key in config or input")
		}
		key = k
	}

	val, err := b.cache.Get(ctx, key)
	switch {
	case cache.IsCacheMiss(err):
		if b.cfg.Default != nil {
			return types.Once(types.StringOutput(*b.cfg.Default)), nil
		}
		return types.Once(types.EmptyOutput()), nil
	case err != nil:
		return types.ExecutionResult{}, types.Errorf(types.ErrIO, "cache_get %s", key).WithCause(err)
	}
	return types.Once(types.StringOutput(val)), nil
}

// =============================================================================
// cache_set
// =============================================================================

type cacheSetBlock struct {
	cache *cache.Manager
	key   string
	ttl   time.Duration
}

func (e *env) newCacheSet(cfg CacheSetConfig) (types.Block, error) {
	if e.cache == nil {
		return nil, types.NewError(types.ErrBuild, "cache_set: no cache configured")
	}
	if cfg.Key == "" {
		return nil, types.NewError(types.ErrBuild, "cache_set requires a key")
	}
	return &cacheSetBlock{
		cache: e.cache,
		key:   cfg.Key,
		ttl:   time.Duration(cfg.TTLMS) * time.Millisecond,
	}, nil
}

// Execute stores the input text and passes the input on.
func (b *cacheSetBlock) Execute(ctx context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	if err := b.cache.Set(ctx, b.key, in.Text(), b.ttl); err != nil {
		return types.ExecutionResult{}, types.Errorf(types.ErrIO, "cache_set %s", b.key).WithCause(err)
	}
	return types.Once(passThrough(in)), nil
}

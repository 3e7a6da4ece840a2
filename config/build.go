package config

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/tierkv"
	c "github.com/unkn0wn-root/tierkv/codec"
	gen "github.com/unkn0wn-root/tierkv/genstore"
	pr "github.com/unkn0wn-root/tierkv/provider"
	"github.com/unkn0wn-root/tierkv/provider/bigcache"
	"github.com/unkn0wn-root/tierkv/provider/memory"
	"github.com/unkn0wn-root/tierkv/provider/ristretto"
	rp "github.com/unkn0wn-root/tierkv/provider/redis"
)

const (
	defaultNumCounters = 1e5
	defaultMaxCost     = 64 << 20
	defaultBufferItems = 64
)

type BuildOptions struct {
	Logger tierkv.Logger
	Hooks  tierkv.Hooks
	Rescue *tierkv.RescueSet
	// Backfill registers Tiered.Backfill so GetAll repopulates the caches
	// that missed.
	Backfill bool
}

// CloseFunc releases everything Build created, in reverse build order. The
// shared redis client goes last.
type CloseFunc func(context.Context) error

// Build turns cfg into a Tiered adapter with one Store per tier, all sharing
// codec. Tiers with local generations share one in-process gen store.
func Build[V any](ctx context.Context, cfg Config, codec c.Codec[V], opts BuildOptions) (*tierkv.Tiered[V], CloseFunc, error) {
	if codec == nil {
		return nil, nil, fmt.Errorf("%w: codec is required", ErrInvalid)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	b := &builder[V]{cfg: cfg, opts: opts}
	adapters := make([]tierkv.Adapter[V], 0, len(cfg.Tiers))
	for i, t := range cfg.Tiers {
		s, err := b.store(ctx, t, codec)
		if err != nil {
			_ = b.close(ctx)
			return nil, nil, fmt.Errorf("tier %d (%s): %w", i, t.Name, err)
		}
		adapters = append(adapters, s)
	}

	tt, err := tierkv.New[V](tierkv.Options[V]{
		Tiers:  adapters,
		Logger: opts.Logger,
		Hooks:  opts.Hooks,
		Rescue: opts.Rescue,
	})
	if err != nil {
		_ = b.close(ctx)
		return nil, nil, err
	}
	if opts.Backfill {
		tt.OnMissing(tt.Backfill())
	}
	return tt, b.close, nil
}

type builder[V any] struct {
	cfg     Config
	opts    BuildOptions
	rdb     *goredis.Client
	local   *gen.Local
	closers []func(context.Context) error
}

func (b *builder[V]) store(ctx context.Context, t Tier, codec c.Codec[V]) (*tierkv.Store[V], error) {
	p, err := b.provider(ctx, t)
	if err != nil {
		return nil, err
	}

	wrapped, err := b.codec(t, codec)
	if err != nil {
		_ = p.Close(ctx)
		return nil, err
	}

	gs, err := b.genStore(t)
	if err != nil {
		_ = p.Close(ctx)
		return nil, err
	}

	so := tierkv.StoreOptions[V]{
		Namespace: t.Namespace,
		Provider:  p,
		Codec:     wrapped,
		Logger:    b.opts.Logger,
		Hooks:     b.opts.Hooks,
		TTL:       t.TTL,
		GenStore:  gs,
	}
	if t.Kind == KindRistretto {
		so.ComputeSetCost = func(_ string, raw []byte) int64 { return int64(len(raw)) }
	}
	s, err := tierkv.NewStore[V](so)
	if err != nil {
		_ = p.Close(ctx)
		return nil, err
	}
	b.closers = append(b.closers, s.Close)
	return s, nil
}

func (b *builder[V]) provider(ctx context.Context, t Tier) (pr.Provider, error) {
	switch t.Kind {
	case KindMemory:
		return memory.New(), nil
	case KindRistretto:
		return ristretto.New(ristretto.Config{
			NumCounters: orInt64(t.NumCounters, defaultNumCounters),
			MaxCost:     orInt64(t.MaxCost, defaultMaxCost),
			BufferItems: orInt64(t.BufferItems, defaultBufferItems),
			Synchronous: t.Synchronous,
		})
	case KindBigcache:
		return bigcache.New(ctx, bigcache.Config{
			LifeWindow:         t.TTL,
			CleanWindow:        t.CleanWindow,
			Shards:             t.Shards,
			HardMaxCacheSizeMB: t.HardMaxCacheSizeMB,
		})
	case KindRedis:
		return rp.New(rp.Config{Client: b.redis()})
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalid, t.Kind)
}

// codec applies compression. max_decode bounds the bytes handed to the
// value codec, so compressed tiers enforce it while decompressing.
func (b *builder[V]) codec(t Tier, inner c.Codec[V]) (c.Codec[V], error) {
	switch t.Compress {
	case CompressGzip:
		return c.Gzip[V]{Inner: inner, MaxDecoded: t.MaxDecode}, nil
	case CompressZstd:
		z, err := c.NewZstdLimited[V](inner, 0, t.MaxDecode)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func(context.Context) error { return z.Close() })
		return z, nil
	}
	if t.MaxDecode > 0 {
		return c.Limit[V]{Inner: inner, MaxDecode: t.MaxDecode}, nil
	}
	return inner, nil
}

func (b *builder[V]) genStore(t Tier) (gen.GenStore, error) {
	switch t.Generations {
	case GenLocal:
		if b.local == nil {
			b.local = gen.NewLocal(0, 0)
		}
		return b.local, nil
	case GenRedis:
		return gen.NewRedis(gen.RedisOptions{Client: b.redis(), Namespace: t.Namespace, TTL: t.TTL})
	}
	return nil, nil
}

// redis lazily opens the shared client. go-redis dials on first command, so
// building never blocks on the server.
func (b *builder[V]) redis() *goredis.Client {
	if b.rdb == nil {
		b.rdb = goredis.NewClient(&goredis.Options{
			Addr:     b.cfg.Redis.Addr,
			Username: b.cfg.Redis.Username,
			Password: b.cfg.Redis.Password,
			DB:       b.cfg.Redis.DB,
		})
	}
	return b.rdb
}

func (b *builder[V]) close(ctx context.Context) error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	if b.rdb != nil {
		if err := b.rdb.Close(); err != nil {
			errs = append(errs, err)
		}
		b.rdb = nil
	}
	return errors.Join(errs...)
}

func orInt64(v, def int64) int64 {
	if v > 0 {
		return v
	}
	return def
}

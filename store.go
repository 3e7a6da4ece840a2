package tierkv

import (
	"context"
	"fmt"
	"time"

	c "github.com/unkn0wn-root/tierkv/codec"
	gen "github.com/unkn0wn-root/tierkv/genstore"
	"github.com/unkn0wn-root/tierkv/internal/wire"
	pr "github.com/unkn0wn-root/tierkv/provider"
)

// StoreOptions configure a Store. Namespace, Provider and Codec are required.
type StoreOptions[V any] struct {
	Namespace string // e.g. "user", "profile"; isolates keys in shared providers
	Provider  pr.Provider
	Codec     c.Codec[V]

	Logger         Logger        // nil => NopLogger
	Hooks          Hooks         // nil => NopHooks
	TTL            time.Duration // 0 => no expiry
	ComputeSetCost SetCostFunc   // nil => 1 per entry
	GenStore       gen.GenStore  // nil => generations disabled
}

// Store is an Adapter over a single byte provider. Values pass through the
// codec and wire framing on their way in and out; entries that fail either
// step, or carry a stale generation, are deleted and read as absent.
type Store[V any] struct {
	ns       string
	provider pr.Provider
	batch    pr.Batch // nil if provider has no native multi-key commands
	codec    c.Codec[V]
	log      Logger
	hooks    Hooks
	ttl      time.Duration
	cost     SetCostFunc
	gen      gen.GenStore
}

var _ Adapter[string] = (*Store[string])(nil)

func NewStore[V any](opts StoreOptions[V]) (*Store[V], error) {
	if opts.Provider == nil {
		return nil, &ConfigurationError{Reason: "store provider is required"}
	}
	if opts.Codec == nil {
		return nil, &ConfigurationError{Reason: "store codec is required"}
	}
	if opts.Namespace == "" {
		return nil, &ConfigurationError{Reason: "store namespace is required"}
	}

	s := &Store[V]{
		ns:       opts.Namespace,
		provider: opts.Provider,
		codec:    opts.Codec,
		ttl:      opts.TTL,
		gen:      opts.GenStore,
	}
	s.batch, _ = opts.Provider.(pr.Batch)
	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	if opts.ComputeSetCost != nil {
		s.cost = opts.ComputeSetCost
	} else {
		s.cost = func(string, []byte) int64 { return 1 }
	}
	return s, nil
}

// Name is the store namespace; Tiered uses it to label the tier.
func (s *Store[V]) Name() string { return s.ns }

// StorageKey maps an application key to the provider key.
func (s *Store[V]) StorageKey(key string) string {
	return "kv:" + s.ns + ":" + key
}

// Close closes the gen store first (best effort), then the provider.
func (s *Store[V]) Close(ctx context.Context) error {
	if s.gen != nil {
		if err := s.gen.Close(ctx); err != nil {
			s.log.Warn("genstore close failed", Fields{"ns": s.ns, "err": err})
		}
	}
	return s.provider.Close(ctx)
}

func (s *Store[V]) Has(ctx context.Context, key string) (bool, error) {
	return has[V](ctx, s, key)
}

func (s *Store[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	k := s.StorageKey(key)
	raw, ok, err := s.provider.Get(ctx, k)
	if err != nil || !ok {
		return zero, false, err
	}
	g, err := s.snapshotGen(ctx, k)
	if err != nil {
		return zero, false, err
	}
	return s.decode(ctx, k, raw, g)
}

func (s *Store[V]) Set(ctx context.Context, key string, value V) (bool, error) {
	k := s.StorageKey(key)
	payload, err := s.codec.Encode(value)
	if err != nil {
		return false, fmt.Errorf("tierkv: encode %q: %w", key, err)
	}
	g, err := s.snapshotGen(ctx, k)
	if err != nil {
		return false, err
	}
	framed := wire.Encode(g, payload)
	ok, err := s.provider.Set(ctx, k, framed, s.cost(k, framed), s.ttl)
	if err != nil {
		return false, err
	}
	if !ok {
		s.hooks.ProviderSetRejected(k)
		s.log.Debug("set rejected by provider (pressure)", Fields{"key": key, "ns": s.ns})
	}
	return ok, nil
}

// Delete bumps the key's generation before removing it so copies of the
// entry in other providers sharing the gen store read as stale.
func (s *Store[V]) Delete(ctx context.Context, key string) (bool, error) {
	k := s.StorageKey(key)
	s.bumpGen(ctx, k)
	return s.provider.Del(ctx, k)
}

func (s *Store[V]) GetAll(ctx context.Context, keys []string) ([]Item[V], error) {
	if s.batch == nil {
		return getAll[V](ctx, s, keys)
	}

	out := make([]Item[V], len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	storage := make([]string, len(keys))
	for i, key := range keys {
		storage[i] = s.StorageKey(key)
		out[i].Key = key
	}
	raws, found, err := s.batch.GetMany(ctx, storage)
	if err != nil {
		return nil, err
	}
	gens, err := s.snapshotGens(ctx, storage)
	if err != nil {
		return nil, err
	}
	for i := range keys {
		if !found[i] {
			continue
		}
		v, ok, err := s.decode(ctx, storage[i], raws[i], gens[storage[i]])
		if err != nil {
			return nil, err
		}
		out[i].Value, out[i].Found = v, ok
	}
	return out, nil
}

func (s *Store[V]) SetAll(ctx context.Context, items map[string]V) ([]string, error) {
	return setAll[V](ctx, s, items)
}

func (s *Store[V]) DeleteAll(ctx context.Context, keys []string) ([]bool, error) {
	if s.batch == nil {
		return deleteAll[V](ctx, s, keys)
	}
	storage := make([]string, len(keys))
	for i, key := range keys {
		storage[i] = s.StorageKey(key)
		s.bumpGen(ctx, storage[i])
	}
	return s.batch.DelMany(ctx, storage)
}

func (s *Store[V]) Fetch(ctx context.Context, key string, produce Producer[V]) (V, error) {
	return fetch[V](ctx, s, key, produce)
}

// decode unframes and decodes raw. Anything unreadable is deleted
// (self-heal) and reported as a miss; only a failing delete is an error.
func (s *Store[V]) decode(ctx context.Context, storageKey string, raw []byte, current uint64) (V, bool, error) {
	var zero V
	g, payload, err := wire.Decode(raw)
	if err != nil {
		return zero, false, s.selfHeal(ctx, storageKey, "corrupt")
	}
	if g != current {
		return zero, false, s.selfHeal(ctx, storageKey, "gen_mismatch")
	}
	v, err := s.codec.Decode(payload)
	if err != nil {
		s.log.Debug("value decode failed", Fields{"key": storageKey, "codec": c.NameOf(s.codec), "err": err})
		return zero, false, s.selfHeal(ctx, storageKey, "value_decode")
	}
	return v, true, nil
}

func (s *Store[V]) selfHeal(ctx context.Context, storageKey, reason string) error {
	s.hooks.SelfHeal(storageKey, reason)
	if _, err := s.provider.Del(ctx, storageKey); err != nil {
		return fmt.Errorf("tierkv: self-heal %s: %w", storageKey, err)
	}
	return nil
}

func (s *Store[V]) snapshotGen(ctx context.Context, storageKey string) (uint64, error) {
	if s.gen == nil {
		return 0, nil
	}
	g, err := s.gen.Snapshot(ctx, storageKey)
	if err != nil {
		s.hooks.GenSnapshotError(1, err)
		return 0, fmt.Errorf("tierkv: gen snapshot: %w", err)
	}
	return g, nil
}

func (s *Store[V]) snapshotGens(ctx context.Context, storageKeys []string) (map[string]uint64, error) {
	if s.gen == nil {
		return map[string]uint64{}, nil
	}
	m, err := s.gen.SnapshotMany(ctx, storageKeys)
	if err != nil {
		s.hooks.GenSnapshotError(len(storageKeys), err)
		return nil, fmt.Errorf("tierkv: gen snapshot: %w", err)
	}
	return m, nil
}

// bumpGen failures are reported but do not block the delete itself; the
// local copy is still removed.
func (s *Store[V]) bumpGen(ctx context.Context, storageKey string) {
	if s.gen == nil {
		return
	}
	if _, err := s.gen.Bump(ctx, storageKey); err != nil {
		s.hooks.GenBumpError(storageKey, err)
		s.log.Error("gen bump error", Fields{"key": storageKey, "err": err})
	}
}

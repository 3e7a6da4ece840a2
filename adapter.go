package tierkv

import (
	"context"
	"sort"
)

// Derive builds the full Adapter contract on top of Get/Set/Delete.
// Batched forms call the single-key operation once per key, in order,
// and stop at the first error.
func Derive[V any](b Basic[V]) Adapter[V] {
	if a, ok := b.(Adapter[V]); ok {
		return a
	}
	return derived[V]{b: b}
}

type derived[V any] struct {
	b Basic[V]
}

var _ Adapter[string] = derived[string]{}

// Name forwards the wrapped backend's name so tier diagnostics stay readable.
func (d derived[V]) Name() string { return tierName(d.b) }

func (d derived[V]) Get(ctx context.Context, key string) (V, bool, error) {
	return d.b.Get(ctx, key)
}

func (d derived[V]) Set(ctx context.Context, key string, value V) (bool, error) {
	return d.b.Set(ctx, key, value)
}

func (d derived[V]) Delete(ctx context.Context, key string) (bool, error) {
	return d.b.Delete(ctx, key)
}

func (d derived[V]) Has(ctx context.Context, key string) (bool, error) {
	return has[V](ctx, d.b, key)
}

func (d derived[V]) GetAll(ctx context.Context, keys []string) ([]Item[V], error) {
	return getAll[V](ctx, d.b, keys)
}

func (d derived[V]) SetAll(ctx context.Context, items map[string]V) ([]string, error) {
	return setAll[V](ctx, d.b, items)
}

func (d derived[V]) DeleteAll(ctx context.Context, keys []string) ([]bool, error) {
	return deleteAll[V](ctx, d.b, keys)
}

func (d derived[V]) Fetch(ctx context.Context, key string, produce Producer[V]) (V, error) {
	return fetch[V](ctx, d.b, key, produce)
}

func has[V any](ctx context.Context, b Basic[V], key string) (bool, error) {
	_, ok, err := b.Get(ctx, key)
	return ok, err
}

func getAll[V any](ctx context.Context, b Basic[V], keys []string) ([]Item[V], error) {
	out := make([]Item[V], len(keys))
	for i, k := range keys {
		v, ok, err := b.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		out[i] = Item[V]{Key: k, Value: v, Found: ok}
	}
	return out, nil
}

func setAll[V any](ctx context.Context, b Basic[V], items map[string]V) ([]string, error) {
	written := make([]string, 0, len(items))
	for _, k := range sortedKeys(items) {
		ok, err := b.Set(ctx, k, items[k])
		if err != nil {
			return written, err
		}
		if ok {
			written = append(written, k)
		}
	}
	return written, nil
}

func deleteAll[V any](ctx context.Context, b Basic[V], keys []string) ([]bool, error) {
	out := make([]bool, len(keys))
	for i, k := range keys {
		removed, err := b.Delete(ctx, k)
		if err != nil {
			return out[:i], err
		}
		out[i] = removed
	}
	return out, nil
}

// fetch is read-then-maybe-write with no lock in between: two callers racing
// on an absent key can both run produce and both write (last write wins).
func fetch[V any](ctx context.Context, b Basic[V], key string, produce Producer[V]) (V, error) {
	v, ok, err := b.Get(ctx, key)
	if err != nil || ok {
		return v, err
	}
	v, err = produce(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	if _, err := b.Set(ctx, key, v); err != nil {
		var zero V
		return zero, err
	}
	return v, nil
}

// sortedKeys gives map-shaped writes a deterministic order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

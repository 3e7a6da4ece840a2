package tierkv

import (
	"context"
	"fmt"
	"sync"
)

// Tiered reads through cache tiers before main and writes main before caches.
// Cache tier failures are contained per the RescueSet; main tier failures
// always propagate unchanged.
type Tiered[V any] struct {
	tiers  []Tier[V] // main last
	log    Logger
	hooks  Hooks
	rescue *RescueSet

	// handler chains; snapshotted per call
	mu        sync.RWMutex
	onError   []ErrorHandler[V]
	onMissing []MissingHandler[V]
}

var _ Adapter[string] = (*Tiered[string])(nil)

type tierMiss[V any] struct {
	tier Tier[V]
	keys []string
}

func newTiered[V any](opts Options[V]) (*Tiered[V], error) {
	if len(opts.Tiers) == 0 {
		return nil, &ConfigurationError{Reason: "no tiers", Err: ErrNoTiers}
	}

	last := len(opts.Tiers) - 1
	t := &Tiered[V]{tiers: make([]Tier[V], len(opts.Tiers))}
	for i, a := range opts.Tiers {
		if a == nil {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("tier %d is nil", i)}
		}
		t.tiers[i] = Tier[V]{Index: i, Name: tierName(a), Main: i == last, Adapter: a}
	}

	t.log = opts.Logger
	if t.log == nil {
		t.log = newStderrLogger()
	}
	t.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	t.rescue = opts.Rescue
	if t.rescue == nil {
		t.rescue = DefaultRescueSet()
	}
	return t, nil
}

// OnError appends h to the error-handler chain.
func (t *Tiered[V]) OnError(h ErrorHandler[V]) {
	if h == nil {
		return
	}
	t.mu.Lock()
	t.onError = append(t.onError, h)
	t.mu.Unlock()
}

// OnMissing appends h to the missing-handler chain. Handlers share the
// resolved map and must not modify it.
func (t *Tiered[V]) OnMissing(h MissingHandler[V]) {
	if h == nil {
		return
	}
	t.mu.Lock()
	t.onMissing = append(t.onMissing, h)
	t.mu.Unlock()
}

// Rescue returns the live rescue set; changes apply to subsequent calls.
func (t *Tiered[V]) Rescue() *RescueSet { return t.rescue }

// Tiers returns the chain in read order, main last.
func (t *Tiered[V]) Tiers() []Tier[V] {
	out := make([]Tier[V], len(t.tiers))
	copy(out, t.tiers)
	return out
}

func (t *Tiered[V]) Main() Tier[V] { return t.tiers[len(t.tiers)-1] }

func (t *Tiered[V]) caches() []Tier[V] { return t.tiers[:len(t.tiers)-1] }

func (t *Tiered[V]) Has(ctx context.Context, key string) (bool, error) {
	return has[V](ctx, t, key)
}

func (t *Tiered[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	for _, tier := range t.caches() {
		v, ok, err := tier.Adapter.Get(ctx, key)
		if err != nil {
			if err = t.contain(tier, OpGet, err, key); err != nil {
				return zero, false, err
			}
			continue
		}
		if ok {
			return v, true, nil
		}
	}
	return t.Main().Adapter.Get(ctx, key)
}

func (t *Tiered[V]) GetAll(ctx context.Context, keys []string) ([]Item[V], error) {
	remaining := uniqueKeys(keys)
	found := make(map[string]V, len(remaining))
	var misses []tierMiss[V]

	for _, tier := range t.caches() {
		if len(remaining) == 0 {
			break
		}
		items, err := tier.Adapter.GetAll(ctx, remaining)
		if err != nil {
			if err = t.contain(tier, OpGetAll, err, remaining); err != nil {
				return nil, err
			}
			items = nil // whole tier counts as a miss
		}
		still := merge(items, remaining, found)
		if len(still) > 0 {
			misses = append(misses, tierMiss[V]{tier: tier, keys: still})
		}
		remaining = still
	}

	if len(remaining) > 0 {
		items, err := t.Main().Adapter.GetAll(ctx, remaining)
		if err != nil {
			return nil, err
		}
		merge(items, remaining, found)
	}

	if err := t.dispatchMissing(ctx, misses, found); err != nil {
		return nil, err
	}

	out := make([]Item[V], len(keys))
	for i, k := range keys {
		v, ok := found[k]
		out[i] = Item[V]{Key: k, Value: v, Found: ok}
	}
	return out, nil
}

// Set writes main first. Caches only see the value if main accepted it.
func (t *Tiered[V]) Set(ctx context.Context, key string, value V) (bool, error) {
	ok, err := t.Main().Adapter.Set(ctx, key, value)
	if err != nil || !ok {
		return ok, err
	}
	for _, tier := range t.caches() {
		if _, err := tier.Adapter.Set(ctx, key, value); err != nil {
			if err = t.contain(tier, OpSet, err, key, value); err != nil {
				return false, err
			}
		}
	}
	return ok, nil
}

func (t *Tiered[V]) SetAll(ctx context.Context, items map[string]V) ([]string, error) {
	written, err := t.Main().Adapter.SetAll(ctx, items)
	if err != nil || len(written) == 0 {
		return written, err
	}

	accepted := items
	if len(written) != len(items) {
		accepted = make(map[string]V, len(written))
		for _, k := range written {
			accepted[k] = items[k]
		}
	}
	for _, tier := range t.caches() {
		if _, err := tier.Adapter.SetAll(ctx, accepted); err != nil {
			if err = t.contain(tier, OpSetAll, err, accepted); err != nil {
				return nil, err
			}
		}
	}
	return written, nil
}

// Delete removes from main, then from every cache regardless of whether main
// had the key, so stale cache entries never outlive main.
func (t *Tiered[V]) Delete(ctx context.Context, key string) (bool, error) {
	removed, err := t.Main().Adapter.Delete(ctx, key)
	if err != nil {
		return removed, err
	}
	for _, tier := range t.caches() {
		if _, err := tier.Adapter.Delete(ctx, key); err != nil {
			if err = t.contain(tier, OpDelete, err, key); err != nil {
				return false, err
			}
		}
	}
	return removed, nil
}

func (t *Tiered[V]) DeleteAll(ctx context.Context, keys []string) ([]bool, error) {
	removed, err := t.Main().Adapter.DeleteAll(ctx, keys)
	if err != nil {
		return removed, err
	}
	for _, tier := range t.caches() {
		if _, err := tier.Adapter.DeleteAll(ctx, keys); err != nil {
			if err = t.contain(tier, OpDeleteAll, err, keys); err != nil {
				return nil, err
			}
		}
	}
	return removed, nil
}

func (t *Tiered[V]) Fetch(ctx context.Context, key string, produce Producer[V]) (V, error) {
	return fetch[V](ctx, t, key, produce)
}

// contain decides the fate of a cache tier failure. nil means the caller
// carries on as if the tier had no value; anything else aborts the operation.
func (t *Tiered[V]) contain(tier Tier[V], op Op, err error, args ...any) error {
	if !t.rescue.Match(err) {
		return err
	}
	t.hooks.TierRescued(tier.Name, op, err)

	t.mu.RLock()
	handlers := t.onError
	t.mu.RUnlock()

	if len(handlers) == 0 {
		t.log.Warn("tierkv: cache tier failure", Fields{
			"err_type": fmt.Sprintf("%T", err),
			"tier":     tier.Name,
			"index":    tier.Index,
			"op":       string(op),
			"args":     args,
			"err":      err.Error(),
		})
		return nil
	}

	call := Call[V]{Tier: tier, Op: op, Args: args}
	for _, h := range handlers {
		if herr := h(err, call); herr != nil {
			return herr
		}
	}
	return nil
}

func (t *Tiered[V]) dispatchMissing(ctx context.Context, misses []tierMiss[V], found map[string]V) error {
	if len(misses) == 0 {
		return nil
	}
	t.mu.RLock()
	handlers := t.onMissing
	t.mu.RUnlock()
	if len(handlers) == 0 {
		return nil
	}

	for _, m := range misses {
		resolved := make(map[string]V, len(m.keys))
		for _, k := range m.keys {
			if v, ok := found[k]; ok {
				resolved[k] = v
			}
		}
		t.hooks.MissingDispatched(m.tier.Name, len(m.keys), len(resolved))
		for _, h := range handlers {
			if err := h(ctx, m.tier, resolved); err != nil {
				return err
			}
		}
	}
	return nil
}

// Backfill returns a MissingHandler that writes resolved values into the
// tier that missed them. A failing write goes through the same containment
// as any other cache write: rescued failures reach the error handlers (or
// the diagnostic), anything else aborts the read.
func (t *Tiered[V]) Backfill() MissingHandler[V] {
	return func(ctx context.Context, tier Tier[V], resolved map[string]V) error {
		if len(resolved) == 0 || tier.Main {
			return nil
		}
		if _, err := tier.Adapter.SetAll(ctx, resolved); err != nil {
			return t.contain(tier, OpSetAll, err, resolved)
		}
		return nil
	}
}

// merge copies positional hits into found and returns the keys still missing.
func merge[V any](items []Item[V], keys []string, found map[string]V) []string {
	var still []string
	for i, k := range keys {
		if i < len(items) && items[i].Found {
			found[k] = items[i].Value
			continue
		}
		still = append(still, k)
	}
	return still
}

func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func tierName(a any) string {
	if n, ok := a.(interface{ Name() string }); ok {
		if s := n.Name(); s != "" {
			return s
		}
	}
	return fmt.Sprintf("%T", a)
}

package tierkv

import (
	"context"
)

type SetCostFunc func(key string, raw []byte) int64

// Producer computes a value for Fetch when the key is absent.
type Producer[V any] func(ctx context.Context) (V, error)

// Item is one positional result of a batched read.
type Item[V any] struct {
	Key   string
	Value V
	Found bool
}

// Basic is the minimal backend contract. Derive turns it into a full Adapter.
type Basic[V any] interface {
	// Get returns (value, true, nil) on hit; (zero, false, nil) on miss.
	Get(ctx context.Context, key string) (V, bool, error)
	// Set returns ok=false when the backend declined the write.
	Set(ctx context.Context, key string, value V) (bool, error)
	// Delete reports whether something was removed.
	Delete(ctx context.Context, key string) (bool, error)
}

// Adapter is the uniform key-value contract every tier implements.
type Adapter[V any] interface {
	Basic[V]

	Has(ctx context.Context, key string) (bool, error)

	// Batched forms. GetAll and DeleteAll results are aligned with keys.
	// SetAll returns the keys that were written, sorted.
	GetAll(ctx context.Context, keys []string) ([]Item[V], error)
	SetAll(ctx context.Context, items map[string]V) ([]string, error)
	DeleteAll(ctx context.Context, keys []string) ([]bool, error)

	// Fetch returns the stored value or stores and returns produce's result.
	// Not atomic across callers.
	Fetch(ctx context.Context, key string, produce Producer[V]) (V, error)
}

// Op names an adapter operation in handler calls and diagnostics.
type Op string

const (
	OpGet       Op = "get"
	OpGetAll    Op = "get_all"
	OpSet       Op = "set"
	OpSetAll    Op = "set_all"
	OpDelete    Op = "delete"
	OpDeleteAll Op = "delete_all"
)

// Tier describes one backend in a Tiered chain.
type Tier[V any] struct {
	Index   int
	Name    string
	Main    bool
	Adapter Adapter[V]
}

// Call identifies a failed secondary tier invocation.
type Call[V any] struct {
	Tier Tier[V]
	Op   Op
	Args []any
}

// ErrorHandler receives contained secondary tier failures.
// A non-nil return aborts the operation with that error.
type ErrorHandler[V any] func(err error, call Call[V]) error

// MissingHandler is called after GetAll once per tier that missed keys.
// resolved maps each missed key to the value a later tier returned;
// keys no tier had are absent from the map.
type MissingHandler[V any] func(ctx context.Context, tier Tier[V], resolved map[string]V) error

// Options configure a Tiered adapter. Only Tiers is required.
type Options[V any] struct {
	// Tiers in read order: caches first, main (authoritative) last.
	Tiers []Adapter[V]

	Logger Logger     // nil => warn-level console logger on stderr
	Hooks  Hooks      // nil => NopHooks
	Rescue *RescueSet // nil => DefaultRescueSet()
}

func New[V any](opts Options[V]) (*Tiered[V], error) {
	return newTiered[V](opts)
}

// Package provider defines the byte stores a tierkv.Store runs on.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation). Compression and serialization belong
// to the Store's codec, not the provider.
//
// The keyspace "kv:<ns>:" is owned by tierkv. Foreign writes under that prefix
// fail wire-format validation and get deleted on read.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL (<= 0 means no expiry). May ignore
	// cost if unsupported. Returns ok=false when the store rejected the write.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key and reports whether it was present.
	Del(ctx context.Context, key string) (bool, error)

	// Close releases resources.
	Close(ctx context.Context) error
}

// Batch is implemented by providers with native multi-key commands.
// Results are aligned with keys.
type Batch interface {
	GetMany(ctx context.Context, keys []string) (values [][]byte, found []bool, err error)
	DelMany(ctx context.Context, keys []string) ([]bool, error)
}

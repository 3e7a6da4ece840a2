// Package genstore keeps per-key generation counters. A Store stamps each
// entry with the key's generation at write time and bumps it on delete, so
// entries written before a delete read as stale everywhere the counter is
// shared.
package genstore

import "context"

// GenStore is where a Store keeps generations. Keys are storage keys; a key
// never bumped is at generation 0.
type GenStore interface {
	Snapshot(ctx context.Context, storageKey string) (uint64, error)
	// SnapshotMany may omit keys at generation 0.
	SnapshotMany(ctx context.Context, storageKeys []string) (map[string]uint64, error)
	// Bump increments atomically and returns the new generation.
	Bump(ctx context.Context, storageKey string) (uint64, error)
	Close(context.Context) error
}

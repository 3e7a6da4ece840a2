// Package tierkv orchestrates reads and writes across an ordered chain of
// key-value tiers. The last tier is the main (authoritative) store; the ones
// before it are caches consulted first on reads and written after main.
//
// Components:
//   - Adapter[V]: uniform key-value contract every tier implements.
//     Basic[V] + Derive cover backends that only know Get/Set/Delete.
//   - Store[V]: an Adapter over a byte provider (ristretto, bigcache, redis,
//     memory). Applies a codec.Codec[V] and wire framing at the storage boundary.
//   - Tiered[V]: read-fallback, write-through, failure isolation for cache
//     tiers and missing-key notification for backfill.
//
// Keys:
//
//	kv:<ns>:<key> - Store entries
//
// Read/write pattern:
//
//	t, _ := tierkv.New[User](tierkv.Options[User]{Tiers: []tierkv.Adapter[User]{l1, l2, db}})
//	t.OnMissing(t.Backfill()) // repopulate caches after a miss
//	u, ok, err := t.Get(ctx, "u:1")     // l1 -> l2 -> db
//	_, err = t.Set(ctx, "u:1", u)        // db first, then l1, l2
//
// Fetch is read-then-write and not atomic: concurrent callers on the same
// absent key may each run the producer. Add external locking when the
// producer must run once.
package tierkv

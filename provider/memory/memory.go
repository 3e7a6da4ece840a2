// Package memory is an in-process provider on jellydator/ttlcache. Writes are
// visible to the next read and every entry carries its own TTL. Expired
// entries are dropped lazily on access.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	pr "github.com/unkn0wn-root/tierkv/provider"
)

type Memory struct {
	// mu makes presence checks and their follow-up delete atomic;
	// ttlcache locks each call on its own.
	mu sync.Mutex
	c  *ttlcache.Cache[string, []byte]
}

var (
	_ pr.Provider = (*Memory)(nil)
	_ pr.Batch    = (*Memory)(nil)
)

func New() *Memory {
	return &Memory{
		c: ttlcache.New[string, []byte](
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
	}
}

// Get returns a copy; callers may modify it freely.
func (p *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.getLocked(key)
	return v, ok, nil
}

// Set stores a copy of value. ttl <= 0 means no expiry.
func (p *Memory) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	v := append([]byte(nil), value...)
	p.mu.Lock()
	p.c.Set(key, v, ttl)
	p.mu.Unlock()
	return true, nil
}

func (p *Memory) Del(_ context.Context, key string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.delLocked(key), nil
}

func (p *Memory) GetMany(_ context.Context, keys []string) ([][]byte, []bool, error) {
	values := make([][]byte, len(keys))
	found := make([]bool, len(keys))
	p.mu.Lock()
	for i, k := range keys {
		values[i], found[i] = p.getLocked(k)
	}
	p.mu.Unlock()
	return values, found, nil
}

func (p *Memory) DelMany(_ context.Context, keys []string) ([]bool, error) {
	out := make([]bool, len(keys))
	p.mu.Lock()
	for i, k := range keys {
		out[i] = p.delLocked(k)
	}
	p.mu.Unlock()
	return out, nil
}

// Len counts live entries.
func (p *Memory) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.c.DeleteExpired()
	return p.c.Len()
}

func (p *Memory) Close(context.Context) error {
	p.c.DeleteAll()
	return nil
}

func (p *Memory) getLocked(key string) ([]byte, bool) {
	item := p.c.Get(key)
	if item == nil {
		// absent or expired; ttlcache keeps expired items until removed
		p.c.Delete(key)
		return nil, false
	}
	return append([]byte(nil), item.Value()...), true
}

func (p *Memory) delLocked(key string) bool {
	live := p.c.Get(key) != nil
	p.c.Delete(key)
	return live
}

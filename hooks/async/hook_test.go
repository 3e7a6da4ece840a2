package asynchook

import (
	"errors"
	"sync"
	"testing"

	"github.com/unkn0wn-root/tierkv"
)

type recorder struct {
	tierkv.NopHooks
	mu      sync.Mutex
	rescued []string
	heals   []string
}

func (r *recorder) TierRescued(tier string, op tierkv.Op, _ error) {
	r.mu.Lock()
	r.rescued = append(r.rescued, tier+"/"+string(op))
	r.mu.Unlock()
}

func (r *recorder) SelfHeal(k, reason string) {
	r.mu.Lock()
	r.heals = append(r.heals, k+":"+reason)
	r.mu.Unlock()
}

func TestCloseDrainsQueuedEvents(t *testing.T) {
	rec := &recorder{}
	h := New(rec, 2, 16)

	h.TierRescued("l1", tierkv.OpGet, errors.New("boom"))
	h.SelfHeal("kv:u:1", "corrupt")
	h.Close()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.rescued) != 1 || rec.rescued[0] != "l1/get" {
		t.Fatalf("rescued=%v", rec.rescued)
	}
	if len(rec.heals) != 1 || rec.heals[0] != "kv:u:1:corrupt" {
		t.Fatalf("heals=%v", rec.heals)
	}
}

func TestEventsAfterCloseAreDropped(t *testing.T) {
	rec := &recorder{}
	h := New(rec, 1, 1)
	h.Close()
	h.Close() // idempotent

	h.SelfHeal("k", "corrupt")
	if h.Dropped() != 1 {
		t.Fatalf("Dropped=%d want 1", h.Dropped())
	}
}

package engine

import (
	"testing"
	"time"
)

func TestHostMemory(t *testing.T) {
	hm := NewHostMemory(time.Minute)
	defer hm.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	hm.now = func() time.Time { return now }

	if got := hm.Get("shop.example"); got != "" {
		t.Fatalf("empty memory returned %q", got)
	}

	hm.Set("shop.example", "rod")
	if got := hm.Get("shop.example"); got != "rod" {
		t.Errorf("Get() = %q, want rod", got)
	}

	now = now.Add(2 * time.Minute)
	if got := hm.Get("shop.example"); got != "" {
		t.Errorf("expired entry returned %q", got)
	}

	hm.Set("a.example", "http")
	hm.Set("b.example", "rod")
	hm.Forget("a.example")
	if got := hm.Get("a.example"); got != "" {
		t.Errorf("forgotten entry returned %q", got)
	}

	now = now.Add(2 * time.Minute)
	hm.prune()
	if _, ok := hm.store.Load("b.example"); ok {
		t.Error("prune kept an expired entry")
	}

	hm.Stop()
	hm.Stop()
}

package engine

import (
	"sync"
	"time"
)

// hostEntry stores the engine that last found a price on a host.
type hostEntry struct {
	engineName string
	expiresAt  time.Time
}

// HostMemory remembers which engine produced a price for each host, so the
// next lookup on that host can skip engines that are known to come up empty.
// Entries expire after the configured TTL and are pruned periodically.
type HostMemory struct {
	store sync.Map // host (string) -> *hostEntry
	ttl   time.Duration
	now   func() time.Time
	done  chan struct{}
	once  sync.Once
}

// NewHostMemory creates a HostMemory with the given TTL and starts a
// background goroutine that prunes expired entries every hour.
func NewHostMemory(ttl time.Duration) *HostMemory {
	hm := &HostMemory{
		ttl:  ttl,
		now:  time.Now,
		done: make(chan struct{}),
	}
	go hm.cleanupLoop()
	return hm
}

// Get returns the remembered engine name for host, or "" if none is live.
func (hm *HostMemory) Get(host string) string {
	val, ok := hm.store.Load(host)
	if !ok {
		return ""
	}
	entry := val.(*hostEntry)
	if hm.now().After(entry.expiresAt) {
		hm.store.Delete(host)
		return ""
	}
	return entry.engineName
}

// Set records the engine that found a price on host.
func (hm *HostMemory) Set(host, engineName string) {
	hm.store.Store(host, &hostEntry{
		engineName: engineName,
		expiresAt:  hm.now().Add(hm.ttl),
	})
}

// Forget drops the entry for host, e.g. after the remembered engine failed.
func (hm *HostMemory) Forget(host string) {
	hm.store.Delete(host)
}

// Stop terminates the background cleanup goroutine. It is safe to call
// more than once.
func (hm *HostMemory) Stop() {
	hm.once.Do(func() { close(hm.done) })
}

func (hm *HostMemory) cleanupLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-hm.done:
			return
		case <-ticker.C:
			hm.prune()
		}
	}
}

func (hm *HostMemory) prune() {
	now := hm.now()
	hm.store.Range(func(key, value any) bool {
		if now.After(value.(*hostEntry).expiresAt) {
			hm.store.Delete(key)
		}
		return true
	})
}

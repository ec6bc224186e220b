package engine

import (
	"sync"
	"time"
)

// BlockMemory remembers hosts that recently answered 403 so later fetches
// pre-warm cookies for them even when the site is not marked hardened.
// Entries expire after the configured TTL and are cleaned up periodically.
type BlockMemory struct {
	store sync.Map // host (string) -> expiry (time.Time)
	ttl   time.Duration
	done  chan struct{}
	once  sync.Once
}

// NewBlockMemory creates a BlockMemory with the given TTL and starts a
// background goroutine that prunes expired entries every hour.
func NewBlockMemory(ttl time.Duration) *BlockMemory {
	bm := &BlockMemory{
		ttl:  ttl,
		done: make(chan struct{}),
	}
	go bm.cleanupLoop()
	return bm
}

// Blocked reports whether host was marked within the TTL.
func (bm *BlockMemory) Blocked(host string) bool {
	if bm == nil {
		return false
	}
	val, ok := bm.store.Load(host)
	if !ok {
		return false
	}
	if time.Now().After(val.(time.Time)) {
		bm.store.Delete(host)
		return false
	}
	return true
}

// Mark records a block for host.
func (bm *BlockMemory) Mark(host string) {
	if bm == nil {
		return
	}
	bm.store.Store(host, time.Now().Add(bm.ttl))
}

// Forget removes host after a clean fetch.
func (bm *BlockMemory) Forget(host string) {
	if bm == nil {
		return
	}
	bm.store.Delete(host)
}

// Stop terminates the background cleanup goroutine.
func (bm *BlockMemory) Stop() {
	bm.once.Do(func() { close(bm.done) })
}

func (bm *BlockMemory) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-bm.done:
			return
		case <-ticker.C:
			now := time.Now()
			bm.store.Range(func(key, value any) bool {
				if now.After(value.(time.Time)) {
					bm.store.Delete(key)
				}
				return true
			})
		}
	}
}

package share

import (
	"context"
	"sync"
	"time"

	"github.com/predictionmetrics/marketshare/internal/model"
)

// cacheEntry is one cached response with its fetch time.
type cacheEntry struct {
	resp      model.ShareResponse
	fetchedAt time.Time
}

// inflight tracks the newest fetch per key so a superseding request can
// cancel the one it replaces.
type inflight struct {
	gen    uint64
	cancel context.CancelFunc
}

// responseCache is a TTL cache over share responses. Each key has at most one
// live fetch: beginning a new fetch cancels the previous one, and a cancelled
// fetch's result is discarded rather than overwriting the newer result
// (last writer wins by generation).
type responseCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	clock    func() time.Time
	entries  map[string]cacheEntry
	inflight map[string]*inflight
	nextGen  uint64
}

func newResponseCache(ttl time.Duration, clock func() time.Time) *responseCache {
	if clock == nil {
		clock = time.Now
	}
	return &responseCache{
		ttl:      ttl,
		clock:    clock,
		entries:  make(map[string]cacheEntry),
		inflight: make(map[string]*inflight),
	}
}

// lookup returns the cached response for key if it is still fresh.
func (c *responseCache) lookup(key string) (model.ShareResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.clock().Sub(e.fetchedAt) >= c.ttl {
		return model.ShareResponse{}, false
	}
	return e.resp, true
}

// begin registers a fetch for key, cancelling any fetch it supersedes.
// The returned context governs the new fetch; the generation must be passed
// back to store.
func (c *responseCache) begin(ctx context.Context, key string) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.inflight[key]; ok {
		prev.cancel()
	}

	fctx, cancel := context.WithCancel(ctx)
	c.nextGen++
	c.inflight[key] = &inflight{gen: c.nextGen, cancel: cancel}
	return fctx, c.nextGen
}

// store records a fetch result. A result from a superseded fetch is dropped.
func (c *responseCache) store(key string, gen uint64, resp model.ShareResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.inflight[key]
	if !ok || cur.gen != gen {
		return
	}
	cur.cancel()
	delete(c.inflight, key)
	c.entries[key] = cacheEntry{resp: resp, fetchedAt: c.clock()}
}

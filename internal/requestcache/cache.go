// Package requestcache is the TTL cache and in-flight deduplication layer in
// front of every network read. Keys are canonical encodings of the query, so
// logically identical queries share one slot; a new request for a key that is
// already in flight supersedes the old one, whose result is discarded.
package requestcache

import (
	"context"
	"errors"
	"sync"
	"time"

	"imovelmap/pkg/apierr"
)

// DefaultTTL is how long a cached payload stays fresh.
const DefaultTTL = 10 * time.Minute

// ErrSuperseded is returned to a caller whose in-flight request was replaced
// by a newer request for the same key. The caller only ever wants the latest
// filter state, so the stale result is dropped, never applied.
var ErrSuperseded = errors.New("request superseded by newer request for same key")

// Loader performs the actual network read. It must honor ctx cancellation.
type Loader func(ctx context.Context) (any, error)

type entry struct {
	payload  any
	storedAt time.Time
}

type inflight struct {
	cancel context.CancelFunc
}

type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	entries  map[string]entry
	inflight map[string]*inflight
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]entry),
		inflight: make(map[string]*inflight),
	}
}

// Fetch returns the cached payload for key when it is still fresh. Otherwise
// it runs load, retrying exactly once on a transient failure (network error
// or 5xx), and caches the result on success. Failures are surfaced to the
// caller and never cached. If another Fetch for the same key starts while
// load is running, this call's context is cancelled and it returns
// ErrSuperseded.
func (c *Cache) Fetch(ctx context.Context, key string, load Loader) (any, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Sub(e.storedAt) < c.ttl {
		c.mu.Unlock()
		return e.payload, nil
	}

	// Supersede: newest request for a key wins.
	if old, ok := c.inflight[key]; ok {
		old.cancel()
	}
	fctx, cancel := context.WithCancel(ctx)
	defer cancel()
	token := &inflight{cancel: cancel}
	c.inflight[key] = token
	c.mu.Unlock()

	payload, err := load(fctx)
	if err != nil && apierr.Transient(err) && fctx.Err() == nil {
		payload, err = load(fctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[key] == token {
		delete(c.inflight, key)
	}

	if fctx.Err() != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}

	c.entries[key] = entry{payload: payload, storedAt: c.now()}
	return payload, nil
}

// Purge drops every cached entry. Used when the caller knows server-side
// state changed in a way the TTL cannot account for. In-flight requests are
// left alone; their results will simply repopulate the cache.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len reports the number of cached entries, fresh or stale.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

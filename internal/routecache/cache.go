package routecache

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sells-group/location-evaluator/internal/routing"
)

// Mode selects how the cache balances stored entries against fresh fetches.
type Mode int

const (
	// ModeNormal serves non-expired entries and fetches on miss.
	ModeNormal Mode = iota
	// ModeCacheOnly never fetches; a miss returns ErrCacheMiss.
	ModeCacheOnly
	// ModeForceRefresh ignores stored entries and always fetches.
	ModeForceRefresh
)

// Counters tracks cache effectiveness over a run.
type Counters struct {
	Hits    atomic.Int64
	Misses  atomic.Int64
	Fetches atomic.Int64
}

// Cache answers route requests from a Store, delegating misses to a routing
// gateway. Concurrent requests for the same key share one in-flight fetch.
type Cache struct {
	store    Store
	gw       routing.Gateway
	ttl      time.Duration
	mode     Mode
	group    singleflight.Group
	counters Counters
}

// New builds a Cache over store and gw with the given entry TTL.
func New(store Store, gw routing.Gateway, ttl time.Duration, mode Mode) *Cache {
	return &Cache{store: store, gw: gw, ttl: ttl, mode: mode}
}

// GetOrFetch returns the route for req, from the store when a fresh entry
// exists and from the gateway otherwise. Store read errors are not fatal:
// the cache logs nothing and falls through to a fetch, because a cache must
// never make an answerable request fail.
func (c *Cache) GetOrFetch(ctx context.Context, req routing.Request, destAddress string) (Entry, error) {
	key := NewKey(req.OriginLat, req.OriginLon, destAddress, req.Mode, req.Departure)

	if c.mode != ModeForceRefresh {
		if e, ok, err := c.store.Get(ctx, key); err == nil && ok {
			c.counters.Hits.Add(1)
			return e, nil
		}
		c.counters.Misses.Add(1)
	}

	if c.mode == ModeCacheOnly {
		return Entry{}, ErrCacheMiss
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		// Another goroutine may have filled the key while we queued.
		if c.mode != ModeForceRefresh {
			if e, ok, err := c.store.Get(ctx, key); err == nil && ok {
				return e, nil
			}
		}

		c.counters.Fetches.Add(1)
		route, err := c.gw.Route(ctx, req)
		if err != nil {
			return Entry{}, err
		}

		now := time.Now().UTC()
		e := Entry{
			DurationMinutes: route.DurationMinutes,
			DistanceMiles:   route.DistanceMiles,
			Mode:            string(req.Mode),
			Source:          route.Source,
			FetchedAt:       now,
			ExpiresAt:       now.Add(c.ttl),
		}
		if err := c.store.Put(ctx, key, e); err != nil {
			return Entry{}, err
		}
		return e, nil
	})
	if err != nil {
		return Entry{}, err
	}
	return v.(Entry), nil
}

// Snapshot returns current counter values.
func (c *Cache) Snapshot() (hits, misses, fetches int64) {
	return c.counters.Hits.Load(), c.counters.Misses.Load(), c.counters.Fetches.Load()
}

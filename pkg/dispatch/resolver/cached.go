package resolver

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"rapidresq/resq/pkg/dispatch"
	"rapidresq/resq/pkg/ecl/ast"
)

// DefaultCacheTTL is how long resolved locations are kept.
const DefaultCacheTTL = 5 * time.Minute

// Cached memoises a LocationResolver. Errors are not cached.
type Cached struct {
	next    dispatch.LocationResolver
	geocode *ttlcache.Cache[string, ast.Coordinates]
	nearby  *ttlcache.Cache[string, []dispatch.PointOfInterest]
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// NewCached wraps next. Call Stop to release the expiry goroutines.
func NewCached(next dispatch.LocationResolver, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	geocode := ttlcache.New[string, ast.Coordinates](
		ttlcache.WithTTL[string, ast.Coordinates](ttl),
		ttlcache.WithDisableTouchOnHit[string, ast.Coordinates](),
	)
	nearby := ttlcache.New[string, []dispatch.PointOfInterest](
		ttlcache.WithTTL[string, []dispatch.PointOfInterest](ttl),
		ttlcache.WithDisableTouchOnHit[string, []dispatch.PointOfInterest](),
	)
	go geocode.Start()
	go nearby.Start()

	return &Cached{next: next, geocode: geocode, nearby: nearby}
}

// Geocode returns a cached result or asks the wrapped resolver.
func (c *Cached) Geocode(ctx context.Context, name string) (ast.Coordinates, error) {
	if item := c.geocode.Get(name); item != nil {
		c.hits.Add(1)
		return item.Value(), nil
	}
	c.misses.Add(1)

	coords, err := c.next.Geocode(ctx, name)
	if err != nil {
		return ast.Coordinates{}, err
	}
	c.geocode.Set(name, coords, ttlcache.DefaultTTL)
	return coords, nil
}

// Nearby returns a cached result or asks the wrapped resolver.
func (c *Cached) Nearby(ctx context.Context, q dispatch.NearbyQuery) ([]dispatch.PointOfInterest, error) {
	key := fmt.Sprintf("%s|%.4f|%.4f|%d|%d", q.Amenity, q.Center.Latitude, q.Center.Longitude, q.RadiusMeters, q.Limit)
	if item := c.nearby.Get(key); item != nil {
		c.hits.Add(1)
		return append([]dispatch.PointOfInterest(nil), item.Value()...), nil
	}
	c.misses.Add(1)

	pois, err := c.next.Nearby(ctx, q)
	if err != nil {
		return nil, err
	}
	c.nearby.Set(key, append([]dispatch.PointOfInterest(nil), pois...), ttlcache.DefaultTTL)
	return pois, nil
}

// Hits returns the number of cache hits.
func (c *Cached) Hits() uint64 { return c.hits.Load() }

// Misses returns the number of cache misses.
func (c *Cached) Misses() uint64 { return c.misses.Load() }

// Stop halts cache expiry.
func (c *Cached) Stop() {
	c.geocode.Stop()
	c.nearby.Stop()
}

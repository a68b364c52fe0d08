package geocoder

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lintang-b-s/Segmentx/pkg/geo"
)

type cacheEntry struct {
	label RoadLabel
	err   error
}

// Cached. remembers resolved and unresolvable answers per exact coordinate. Transient failures are
// never cached.
type Cached struct {
	next  Resolver
	cache *lru.Cache[geo.Coordinate, cacheEntry]
}

func NewCached(next Resolver, size int) (*Cached, error) {
	cache, err := lru.New[geo.Coordinate, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, cache: cache}, nil
}

func (c *Cached) ResolveRoad(ctx context.Context, coord geo.Coordinate) (RoadLabel, error) {
	if e, ok := c.cache.Get(coord); ok {
		return e.label, e.err
	}
	label, err := c.next.ResolveRoad(ctx, coord)
	if err == nil || !IsTransient(err) {
		c.cache.Add(coord, cacheEntry{label: label, err: err})
	}
	return label, err
}

func (c *Cached) Len() int {
	return c.cache.Len()
}

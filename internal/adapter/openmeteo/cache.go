package openmeteo

import (
	"container/list"
	"context"
	"strings"
	"sync"

	"github.com/couchcryptid/hikecast-alerts/internal/domain"
	"github.com/couchcryptid/hikecast-alerts/internal/observability"
)

// CachedGeocoder memoizes successful lookups in a bounded LRU. Place names
// are matched case-insensitively after trimming.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedGeocoder keeps at most maxEntries places.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedGeocoder) Geocode(ctx context.Context, name string) (domain.GeoLocation, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if geo, ok := c.cache.get(key); ok {
		c.metrics.WeatherCache.WithLabelValues("geocode", "hit").Inc()
		return geo, nil
	}
	c.metrics.WeatherCache.WithLabelValues("geocode", "miss").Inc()

	// Errors, including not-found, are never cached so a later fix upstream is seen.
	geo, err := c.inner.Geocode(ctx, name)
	if err != nil {
		return geo, err
	}
	c.cache.put(key, geo)
	return geo, nil
}

// lruCache is a mutex-guarded LRU of geocoded places. The front of order
// is the most recently used entry.
type lruCache struct {
	maxEntries int

	mu      sync.Mutex
	order   *list.List
	entries map[string]*list.Element
}

type lruEntry struct {
	key string
	geo domain.GeoLocation
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: max(maxEntries, 1),
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *lruCache) get(key string) (domain.GeoLocation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return domain.GeoLocation{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry).geo, true
}

func (c *lruCache) put(key string, geo domain.GeoLocation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*lruEntry).geo = geo
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&lruEntry{key: key, geo: geo})
	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*lruEntry).key)
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

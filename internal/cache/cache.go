package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a small wrapper over go-cache holding fetched event lists and
// other short-lived lookups. Entries are dropped explicitly after mutations
// or expire on their own.
type Cache struct {
	cache *gocache.Cache
}

// New creates a cache with the given default expiration and cleanup interval.
func New(defaultExpiration, cleanupInterval time.Duration) *Cache {
	return &Cache{
		cache: gocache.New(defaultExpiration, cleanupInterval),
	}
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.cache.Get(key)
}

func (c *Cache) Set(key string, value interface{}, duration time.Duration) {
	c.cache.Set(key, value, duration)
}

func (c *Cache) Delete(key string) {
	c.cache.Delete(key)
}

func (c *Cache) Flush() {
	c.cache.Flush()
}

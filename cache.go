package spyglass

import "sync"

// Cache keys for probe results memoized by Session. Callers needing to force
// a re-probe remove the relevant key via Session.Cache().Remove.
const (
	CacheKeyCurrentUser     = "current-user"
	CacheKeyAmazonRDS       = "is-amazon-rds"
	CacheKeyServerCollation = "server-collation"
	CacheKeyDatabaseNames   = "database-names"
)

// DatabaseCollationCacheKey returns the cache key under which the default
// collation of the supplied database is memoized.
func DatabaseCollationCacheKey(database string) string {
	return "db-collation:" + database
}

// Cache is a session-scoped key-value store used to memoize the results of
// expensive idempotent probes. Entries have no TTL and are never evicted;
// they persist until explicitly removed or until the owning session goes
// away. Callers must remove keys themselves on state transitions the cache
// cannot observe, such as switching the session's default database.
type Cache struct {
	sync.Mutex
	entries map[string]interface{}
}

// NewCache returns a ready-to-use Cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]interface{}),
	}
}

// Get returns the value stored under key. The second return value is false
// on a miss. A stored nil or zero value is still a hit; failed probes are
// deliberately cached this way so they aren't repeated.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.Lock()
	defer c.Unlock()
	value, ok := c.entries[key]
	return value, ok
}

// Set stores value under key, replacing any previous value.
func (c *Cache) Set(key string, value interface{}) {
	c.Lock()
	defer c.Unlock()
	c.entries[key] = value
}

// Remove deletes the entry for key, if any. A subsequent Get becomes a miss,
// forcing the caller to re-probe.
func (c *Cache) Remove(key string) {
	c.Lock()
	defer c.Unlock()
	delete(c.entries, key)
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.Lock()
	defer c.Unlock()
	return len(c.entries)
}

// Package cache is a TTL key-value store for per-user analytics results.
// Keys are namespaced as "user:{id}:{name}" so that every entry of a user
// can be invalidated at once after a write.
package cache

import (
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	KeyAnalyticsOverview   = "analytics:overview"
	KeyClassificationStats = "classification:stats"
)

// UserKey builds the namespaced key for a user-scoped entry.
func UserKey(userID, name string) string {
	return userPrefix(userID) + name
}

func userPrefix(userID string) string {
	return "user:" + userID + ":"
}

// Cache wraps go-cache with per-user invalidation.
//
// Every user has a generation that DeleteUser and Flush advance. A result computed
// before an invalidation is dropped by SetIfGeneration instead of being stored.
type Cache struct {
	store *gocache.Cache
	ttl   time.Duration

	mu    sync.Mutex
	gens  map[string]uint64
	epoch uint64 // advanced by Flush
}

// Stats counts the entries currently held, including expired ones not yet evicted.
type Stats struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Expired int `json:"expired"`
}

// New creates a Cache whose entries expire after ttl by default. Expired
// entries are evicted every cleanupInterval.
func New(ttl, cleanupInterval time.Duration) *Cache {
	return &Cache{
		store: gocache.New(ttl, cleanupInterval),
		ttl:   ttl,
		gens:  make(map[string]uint64),
	}
}

// Get returns the value stored under key if it exists and has not expired.
func (c *Cache) Get(key string) (any, bool) {
	return c.store.Get(key)
}

// Generation returns the current generation of userID. Read it before
// computing a value that is later stored with SetIfGeneration.
func (c *Cache) Generation(userID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation(userID)
}

func (c *Cache) generation(userID string) uint64 {
	return c.epoch + c.gens[userID]
}

// SetIfGeneration stores value under the user-scoped key only if userID has not
// been invalidated since gen was read. It reports whether the value was stored.
// A ttl of zero uses the cache default.
func (c *Cache) SetIfGeneration(userID, name string, gen uint64, value any, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation(userID) != gen {
		return false
	}
	c.store.Set(UserKey(userID, name), value, c.expiry(ttl))
	return true
}

// DeleteUser advances the generation of userID and removes every entry of the
// user. It returns how many entries were removed.
func (c *Cache) DeleteUser(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[userID]++

	prefix := userPrefix(userID)
	removed := 0
	// Items only lists unexpired entries; expired ones are already invisible to Get.
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
			removed++
		}
	}
	return removed
}

// Flush removes every entry and invalidates every user.
func (c *Cache) Flush() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	n := c.store.ItemCount()
	c.store.Flush()
	return n
}

func (c *Cache) Stats() Stats {
	total := c.store.ItemCount()
	valid := len(c.store.Items())
	return Stats{
		Total:   total,
		Valid:   valid,
		Expired: total - valid,
	}
}

func (c *Cache) expiry(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return c.ttl
	}
	return ttl
}

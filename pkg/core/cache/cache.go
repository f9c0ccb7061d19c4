// Package cache provides a thread-safe in-memory TTL cache. Expired entries
// are hidden from reads immediately and removed by Sweep, which the owner
// schedules; the cache starts no goroutines of its own.
package cache

import (
	"sort"
	"sync"
	"time"
)

// Entry represents a cached item with expiration
type Entry struct {
	Key        string
	Value      interface{}
	Created    time.Time
	Expiration time.Time
}

// IsExpired reports whether the entry expired at now
func (e *Entry) IsExpired(now time.Time) bool {
	if e.Expiration.IsZero() {
		return false // Never expires
	}
	return !now.Before(e.Expiration)
}

// TTL returns the remaining lifetime at now, or -1 for entries that never
// expire
func (e *Entry) TTL(now time.Time) time.Duration {
	if e.Expiration.IsZero() {
		return -1
	}
	if d := e.Expiration.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Cache is a thread-safe in-memory cache with TTL support
type Cache struct {
	mu       sync.RWMutex
	items    map[string]*Entry
	maxItems int
	ttl      time.Duration
	now      func() time.Time

	// Metrics
	hits    int64
	misses  int64
	evicted int64
}

// Config holds cache configuration
type Config struct {
	MaxItems int
	TTL      time.Duration
	// Now is the clock; tests replace it
	Now func() time.Time
}

// DefaultConfig returns default cache configuration
func DefaultConfig() Config {
	return Config{
		MaxItems: 10000,
		TTL:      5 * time.Minute,
	}
}

// New creates a new cache instance
func New(cfg Config) *Cache {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 10000
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Cache{
		items:    make(map[string]*Entry),
		maxItems: cfg.MaxItems,
		ttl:      cfg.TTL,
		now:      cfg.Now,
	}
}

// Get retrieves a value from the cache
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.items[key]
	if !exists || entry.IsExpired(c.now()) {
		c.misses++
		return nil, false
	}
	c.hits++
	return entry.Value, true
}

// Set stores a value in the cache with the default TTL
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL; ttl <= 0 never expires
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxItems {
		c.evictOldest()
	}

	now := c.now()
	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}

	c.items[key] = &Entry{
		Key:        key,
		Value:      value,
		Created:    now,
		Expiration: exp,
	}
}

// Delete removes a value and reports whether a live entry was removed
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, exists := c.items[key]
	if !exists {
		return false
	}
	delete(c.items, key)
	return !entry.IsExpired(c.now())
}

// Clear removes all items from the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*Entry)
}

// Size returns the number of live items
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	n := 0
	for _, entry := range c.items {
		if !entry.IsExpired(now) {
			n++
		}
	}
	return n
}

// Entries returns copies of the live entries sorted by key
func (c *Cache) Entries() []Entry {
	c.mu.RLock()
	now := c.now()
	out := make([]Entry, 0, len(c.items))
	for _, entry := range c.items {
		if !entry.IsExpired(now) {
			out = append(out, *entry)
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Now returns the cache clock reading
func (c *Cache) Now() time.Time { return c.now() }

// Stats returns cache statistics
func (c *Cache) Stats() (hits, misses int64, hitRate float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hits = c.hits
	misses = c.misses
	total := hits + misses
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return
}

// Evicted returns how many entries capacity eviction and Sweep removed
func (c *Cache) Evicted() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.evicted
}

// evictOldest removes the entry closest to expiry (must be called with lock held)
func (c *Cache) evictOldest() {
	var oldest *Entry
	for _, entry := range c.items {
		if oldest == nil || expiresBefore(entry, oldest) {
			oldest = entry
		}
	}
	if oldest != nil {
		delete(c.items, oldest.Key)
		c.evicted++
	}
}

func expiresBefore(a, b *Entry) bool {
	switch {
	case a.Expiration.IsZero():
		return false
	case b.Expiration.IsZero():
		return true
	default:
		return a.Expiration.Before(b.Expiration)
	}
}

// Sweep removes all expired entries and returns how many it removed
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.items {
		if entry.IsExpired(now) {
			delete(c.items, key)
			removed++
		}
	}
	c.evicted += int64(removed)
	return removed
}

// GetOrSet gets a value or sets it if not present
func (c *Cache) GetOrSet(key string, fn func() (interface{}, error)) (interface{}, error) {
	if val, ok := c.Get(key); ok {
		return val, nil
	}

	val, err := fn()
	if err != nil {
		return nil, err
	}

	c.Set(key, val)
	return val, nil
}

// Package store provides the bounded artwork lookup cache.
package store

import (
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Entry is one resolved artwork lookup. ArtworkRef is either an image URL
// or the configured fallback asset; ExternalID is empty when no candidate
// cleared the match threshold.
type Entry struct {
	ArtworkRef string
	ExternalID string
}

// ArtCache maps a normalized "title|artist" key to a resolved artwork
// entry. It is bounded: when full, the oldest-inserted entry is evicted
// regardless of how often it was hit. A Bloom filter fronts the map as a
// cheap negative check.
type ArtCache struct {
	entries  map[string]Entry
	order    []string
	bloom    *bloom.BloomFilter
	mutex    sync.RWMutex
	capacity int
}

const bloomFalsePositiveRate = 0.001

// NewArtCache creates a cache holding at most capacity entries.
func NewArtCache(capacity int) *ArtCache {
	if capacity <= 0 {
		panic("artwork cache capacity must be positive")
	}

	return &ArtCache{
		entries:  make(map[string]Entry, capacity),
		order:    make([]string, 0, capacity),
		bloom:    bloom.NewWithEstimates(uint(capacity), bloomFalsePositiveRate),
		capacity: capacity,
	}
}

// Key builds the cache key for a title/artist pair.
func Key(title, artist string) string {
	return strings.ToLower(title) + "|" + strings.ToLower(artist)
}

// Get returns the cached entry for key, if present.
func (c *ArtCache) Get(key string) (Entry, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if !c.bloom.TestString(key) {
		return Entry{}, false
	}

	entry, ok := c.entries[key]
	return entry, ok
}

// Put inserts or replaces the entry for key. Inserting into a full cache
// evicts the oldest-inserted entry first.
func (c *ArtCache) Put(key string, entry Entry) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.entries[key]; exists {
		// Replacing keeps the key's original insertion slot.
		c.entries[key] = entry
		return
	}

	if len(c.entries) >= c.capacity {
		c.evictOldest()
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
	c.bloom.AddString(key)
}

// Len returns the number of cached entries.
func (c *ArtCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

func (c *ArtCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}

	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
	// Evicted keys stay in the Bloom filter; it doesn't support removal.
	// That only costs a map lookup on a false positive.
}

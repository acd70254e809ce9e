// Package memo implements ports.ResolutionCache with go-cache. Field texts
// repeat a lot across a portal (publisher names, boilerplate descriptions),
// and a field's decision depends on nothing but its text.
package memo

import (
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/loopercamera/4M/internal/ports"
)

// DefaultTTL keeps entries for a whole batch run.
const DefaultTTL = 30 * time.Minute

// Cache is safe for concurrent use.
type Cache struct {
	c      *cache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

var _ ports.ResolutionCache = (*Cache)(nil)

// New creates a cache whose entries expire after ttl. ttl <= 0 uses
// DefaultTTL. Expired entries are purged every 2*ttl.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{c: cache.New(ttl, 2*ttl)}
}

// Get returns the memoized decision for text.
func (m *Cache) Get(text string) (ports.FieldDecision, bool) {
	v, ok := m.c.Get(text)
	if !ok {
		m.misses.Add(1)
		return ports.FieldDecision{}, false
	}
	m.hits.Add(1)
	return v.(ports.FieldDecision), true
}

// Set memoizes a decision with the default expiration.
func (m *Cache) Set(text string, d ports.FieldDecision) {
	m.c.SetDefault(text, d)
}

// Len returns the number of entries, including expired ones not yet purged.
func (m *Cache) Len() int {
	return m.c.ItemCount()
}

// Flush drops every entry and resets the counters.
func (m *Cache) Flush() {
	m.c.Flush()
	m.hits.Store(0)
	m.misses.Store(0)
}

// Stats reports lookups since creation or the last Flush.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Stats returns a snapshot of the counters.
func (m *Cache) Stats() Stats {
	return Stats{Entries: m.Len(), Hits: m.hits.Load(), Misses: m.misses.Load()}
}

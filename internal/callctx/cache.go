// Package callctx caches verified caller identity for the duration of a
// call, so synchronous tool invocations arriving mid-call can recover the
// caller's phone number without carrying it in their own arguments.
package callctx

import (
	"sync"
	"time"
)

// DefaultTTL comfortably outlasts the longest calls the platform places.
const DefaultTTL = 30 * time.Minute

// Info is the identity context remembered per call.
type Info struct {
	Phone     string
	TenantKey string
	LeadName  string
}

type entry struct {
	info      Info
	expiresAt time.Time
}

// Cache is a fixed-TTL map from call identifier to caller identity.
// Expired entries are dropped lazily on access and opportunistically on
// write; there is no background sweeper to stop.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// New creates a cache with the given TTL (DefaultTTL when non-positive).
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Put remembers the identity context for a call.
func (c *Cache) Put(callID string, info Info) {
	if callID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for id, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, id)
		}
	}
	c.entries[callID] = entry{info: info, expiresAt: now.Add(c.ttl)}
}

// Get returns the remembered context for a call, if still fresh.
func (c *Cache) Get(callID string) (Info, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[callID]
	if !ok {
		return Info{}, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, callID)
		return Info{}, false
	}
	return e.info, true
}

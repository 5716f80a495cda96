// Package cache holds recently served replies keyed by (user, query).
// Entries expire after a TTL and the cache is capped: when full, the
// least recently used entry is evicted. Expired entries are also swept
// periodically by the serve loop.
package cache

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"myve/internal/types"
)

// Defaults for the serve loop.
const (
	DefaultTTL        = 10 * time.Minute
	DefaultMaxEntries = 512
)

type entry struct {
	reply    types.Reply
	userID   string
	storedAt time.Time
	usedAt   time.Time
}

// ResponseCache is a TTL+LRU reply cache. Safe for concurrent use.
type ResponseCache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	ttl        time.Duration
	maxEntries int
	log        *zap.Logger
	now        func() time.Time
}

// New returns a cache with the given TTL and capacity; zero values fall
// back to the defaults.
func New(ttl time.Duration, maxEntries int, log *zap.Logger) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ResponseCache{
		entries:    map[string]*entry{},
		ttl:        ttl,
		maxEntries: maxEntries,
		log:        log.Named("cache"),
		now:        time.Now,
	}
}

// Key builds the cache key for one request. Queries differing only in
// case or surrounding whitespace share an entry.
func Key(userID, query string) string {
	return userID + ":" + strings.ToLower(strings.TrimSpace(query))
}

// Get returns the cached reply for key, if present and fresh.
func (c *ResponseCache) Get(key string) (types.Reply, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return types.Reply{}, false
	}
	now := c.now()
	if now.Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		return types.Reply{}, false
	}
	e.usedAt = now
	return e.reply, true
}

// Put stores a reply, evicting the least recently used entry when full.
func (c *ResponseCache) Put(key, userID string, reply types.Reply) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[key] = &entry{reply: reply, userID: userID, storedAt: now, usedAt: now}
}

// evictOldest removes the entry with the oldest usedAt. Caller holds mu.
func (c *ResponseCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.usedAt.Before(oldest) {
			oldestKey, oldest = k, e.usedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// InvalidateUser drops every entry belonging to userID. Called when the
// user's source data changes on disk.
func (c *ResponseCache) InvalidateUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var dropped int
	for k, e := range c.entries {
		if e.userID == userID {
			delete(c.entries, k)
			dropped++
		}
	}
	if dropped > 0 {
		c.log.Debug("invalidated cached replies",
			zap.String("user", userID), zap.Int("entries", dropped))
	}
}

// Sweep removes expired entries and returns how many were dropped.
func (c *ResponseCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var dropped int
	for k, e := range c.entries {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.entries, k)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of live entries, expired or not.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

// Package cache provides capacity-bounded in-memory caches with TTL and
// LRU eviction, used to make repeated catalog and profile lookups cheap.
//
// Several independently configured instances exist per logical use
// (item-by-id, item listings, popular lists, preference profiles). Each
// instance has its own lock; there is no shared namespace between them.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pickplate/pickplate/internal/metrics"
)

// entry is a node in the LRU list. head.next is the most recently used,
// tail.prev the least recently used.
type entry struct {
	key       string
	value     any
	expiresAt time.Time // zero means no expiry
	prev      *entry
	next      *entry
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Sets      int64 `json:"sets"`
	Deletes   int64 `json:"deletes"`
	Expired   int64 `json:"expired"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
	MaxSize   int   `json:"max_size"`

	// HitRate is the hit percentage over all lookups, 0 when idle.
	HitRate float64 `json:"hit_rate"`
}

// Cache is a thread-safe TTL+LRU cache.
//
// All mutating operations are serialized by a single lock per instance.
// Expiry is checked lazily on Get; a Sweeper removes expired entries
// proactively, independent of read traffic.
type Cache struct {
	mu sync.Mutex

	name       string
	maxSize    int
	defaultTTL time.Duration

	items map[string]*entry
	head  *entry
	tail  *entry

	hits      int64
	misses    int64
	sets      int64
	deletes   int64
	expired   int64
	evictions int64

	logger zerolog.Logger
}

// New creates a cache holding at most maxSize entries, each expiring
// defaultTTL after being set. A defaultTTL <= 0 disables expiry for
// entries set without an explicit TTL.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(name string, maxSize int, defaultTTL time.Duration, logger zerolog.Logger) *Cache {
	if maxSize <= 0 {
		maxSize = 1000
	}

	c := &Cache{
		name:       name,
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		items:      make(map[string]*entry, maxSize),
		head:       &entry{},
		tail:       &entry{},
		logger:     logger.With().Str("component", "cache").Str("cache", name).Logger(),
	}

	c.head.next = c.tail
	c.tail.prev = c.head

	return c
}

// Name returns the instance name used for logging and metrics.
func (c *Cache) Name() string {
	return c.name
}

// Get retrieves a value by key. An entry whose expiry instant has passed
// is removed and treated as a miss. A successful Get promotes the entry
// to most recently used.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		c.misses++
		metrics.CacheMisses.WithLabelValues(c.name).Inc()
		return nil, false
	}

	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.removeEntry(e)
		c.expired++
		c.misses++
		metrics.CacheMisses.WithLabelValues(c.name).Inc()
		return nil, false
	}

	c.moveToFront(e)
	c.hits++
	metrics.CacheHits.WithLabelValues(c.name).Inc()
	return e.value, true
}

// Set stores a value with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value expiring after ttl. A ttl <= 0 stores the
// entry without expiry. When the cache is at capacity the least recently
// used entry is evicted before inserting.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		c.sets++
		return
	}

	for len(c.items) >= c.maxSize {
		c.evictOldest()
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.addToFront(e)
	c.items[key] = e
	c.sets++
}

// Delete removes an entry by key. Returns true if it was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return false
	}

	c.removeEntry(e)
	c.deletes++
	return true
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*entry, c.maxSize)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// InvalidateContaining removes every entry whose key contains token as a
// substring and returns the number removed.
//
// This is intentionally approximate: callers invalidate by identity,
// item, or category token embedded in memoized keys. The substring
// semantics are the invalidation contract and must not be narrowed to
// exact-key indexing.
func (c *Cache) InvalidateContaining(token string) int {
	if token == "" {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for e := c.head.next; e != c.tail; {
		next := e.next
		if strings.Contains(e.key, token) {
			c.removeEntry(e)
			c.deletes++
			removed++
		}
		e = next
	}

	if removed > 0 {
		c.logger.Debug().Str("token", token).Int("removed", removed).Msg("invalidated entries")
	}

	return removed
}

// CleanupExpired removes all expired entries and returns the number removed.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0

	for e := c.tail.prev; e != c.head; {
		prev := e.prev
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			c.removeEntry(e)
			c.expired++
			removed++
		}
		e = prev
	}

	return removed
}

// Len returns the current number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Sets:      c.sets,
		Deletes:   c.deletes,
		Expired:   c.expired,
		Evictions: c.evictions,
		Size:      len(c.items),
		MaxSize:   c.maxSize,
	}

	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total) * 100.0
	}

	return s
}

// Internal list operations. Must be called with the lock held.

func (c *Cache) addToFront(e *entry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *Cache) moveToFront(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	c.addToFront(e)
}

func (c *Cache) removeEntry(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	delete(c.items, e.key)
}

func (c *Cache) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.removeEntry(oldest)
	c.evictions++
	metrics.CacheEvictions.WithLabelValues(c.name).Inc()
}

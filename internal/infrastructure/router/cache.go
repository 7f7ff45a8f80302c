package router

import (
	"strconv"
	"time"
)

// responseCache holds raw model responses keyed by a rolling hash of the full
// prompt string. The hash is not cryptographic; collisions are acceptable for
// this non-security cache and resolve last-writer-wins. Eviction is FIFO by
// insertion order once capacity is exceeded, and entries expire after the TTL.
//
// Callers must hold the router mutex.
type responseCache struct {
	entries map[string]cacheEntry
	order   []string
	max     int
	ttl     time.Duration
}

type cacheEntry struct {
	response string
	cachedAt time.Time
}

func newResponseCache(max int, ttl time.Duration) *responseCache {
	return &responseCache{
		entries: make(map[string]cacheEntry),
		max:     max,
		ttl:     ttl,
	}
}

func (c *responseCache) get(prompt string, now time.Time) (string, bool) {
	key := promptHash(prompt)
	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if now.Sub(entry.cachedAt) > c.ttl {
		c.remove(key)
		return "", false
	}
	return entry.response, true
}

func (c *responseCache) put(prompt, response string, now time.Time) {
	key := promptHash(prompt)
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{response: response, cachedAt: now}

	for len(c.order) > c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

func (c *responseCache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// promptHash is a 31-multiplier rolling hash over the prompt bytes. It is not
// semantically aware, so near-duplicate prompts are cache misses.
func promptHash(prompt string) string {
	var h uint32
	for i := 0; i < len(prompt); i++ {
		h = h*31 + uint32(prompt[i])
	}
	return strconv.FormatUint(uint64(h), 36)
}

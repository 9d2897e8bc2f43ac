package cache

import (
	"sync"
	"time"

	"PulseTrade/internal/domain/models"
)

type entry struct {
	q   *models.Quote
	exp time.Time
}

// QuoteCache is a short-TTL cache of the last-known quote per symbol.
// It is a pure optimization: a disabled cache (ttl <= 0) always misses
// and only upstream load changes, never correctness.
type QuoteCache struct {
	mu  sync.RWMutex
	m   map[string]entry
	ttl time.Duration
}

func NewQuoteCache(ttl time.Duration) *QuoteCache {
	return &QuoteCache{m: make(map[string]entry), ttl: ttl}
}

// Get returns the cached quote only while its age is below the TTL.
// An expired entry is removed and reported as a miss, never served stale.
func (c *QuoteCache) Get(symbol string) (*models.Quote, bool) {
	c.mu.RLock()
	e, ok := c.m[symbol]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.exp) {
		c.mu.Lock()
		// re-check under write lock; a concurrent Put may have refreshed it
		if cur, ok := c.m[symbol]; ok && time.Now().After(cur.exp) {
			delete(c.m, symbol)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.q, true
}

// Put stores a quote with the current timestamp, overwriting any prior
// entry. Concurrent writers race last-writer-wins, which is acceptable
// for time-decaying quotes.
func (c *QuoteCache) Put(symbol string, q *models.Quote) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.m[symbol] = entry{q: q, exp: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Len reports the number of live entries, expired ones included until read.
func (c *QuoteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"policyrag/internal/domain"
)

// QueryCache memoizes ranked evidence per (query, topN). Entries are
// keyed to the weight version they were ranked under, so a tuning run
// implicitly invalidates every cached result.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
}

type cacheEntry struct {
	evidence      []domain.RankedEvidence
	diagnostics   domain.RankDiagnostics
	weightVersion int
	timestamp     time.Time
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func cacheKey(query string, topN int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", query, topN)))
	return hex.EncodeToString(hash[:16])
}

// Get returns a cached result if it is fresh and was ranked under the
// given weight version.
func (c *QueryCache) Get(query string, topN, weightVersion int) ([]domain.RankedEvidence, domain.RankDiagnostics, bool) {
	key := cacheKey(query, topN)

	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, domain.RankDiagnostics{}, false
	}

	if time.Since(entry.timestamp) > c.ttl || entry.weightVersion != weightVersion {
		c.mu.Lock()
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.mu.Unlock()
		return nil, domain.RankDiagnostics{}, false
	}

	c.mu.Lock()
	c.moveToEnd(key)
	c.mu.Unlock()

	return entry.evidence, entry.diagnostics, true
}

// Put stores a result, evicting the least recently used entry when
// full.
func (c *QueryCache) Put(query string, topN, weightVersion int, evidence []domain.RankedEvidence, diag domain.RankDiagnostics) {
	key := cacheKey(query, topN)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	if _, exists := c.entries[key]; exists {
		c.moveToEnd(key)
	} else {
		c.order = append(c.order, key)
	}

	c.entries[key] = &cacheEntry{
		evidence:      evidence,
		diagnostics:   diag,
		weightVersion: weightVersion,
		timestamp:     time.Now(),
	}
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

// Len returns the number of cached entries.
func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Package gateway provides the HTTP client for the remote chat/job gateway:
// chat dispatch and retrieval, plan fetch/execute, and batch-job status.
package gateway

import (
	"sync"
	"time"

	"github.com/smagr173/casey/pkg/models"
)

// planEntry holds a cached plan with a timestamp for TTL expiration.
type planEntry struct {
	plan      *models.Plan
	fetchedAt time.Time
}

// planCache is a thread-safe in-memory cache for fetched plans with TTL
// expiration. Expired entries are cleaned up lazily on Get() — no
// background goroutine.
type planCache struct {
	mu      sync.RWMutex
	entries map[string]*planEntry
	ttl     time.Duration
}

func newPlanCache(ttl time.Duration) *planCache {
	return &planCache{
		entries: make(map[string]*planEntry),
		ttl:     ttl,
	}
}

// Get returns the cached plan if present and not expired.
func (c *planCache) Get(planID string) (*models.Plan, bool) {
	c.mu.RLock()
	entry, ok := c.entries[planID]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if time.Since(entry.fetchedAt) > c.ttl {
		// Expired — clean up lazily.
		// Re-check under write lock: a concurrent Set() may have replaced
		// the entry with a fresh one between RUnlock and Lock.
		c.mu.Lock()
		if current, ok := c.entries[planID]; ok && time.Since(current.fetchedAt) > c.ttl {
			delete(c.entries, planID)
		}
		c.mu.Unlock()
		return nil, false
	}

	return entry.plan, true
}

// Set stores a plan with the current timestamp.
func (c *planCache) Set(planID string, plan *models.Plan) {
	c.mu.Lock()
	c.entries[planID] = &planEntry{
		plan:      plan,
		fetchedAt: time.Now(),
	}
	c.mu.Unlock()
}

// Invalidate drops a plan from the cache (after execution consumes it).
func (c *planCache) Invalidate(planID string) {
	c.mu.Lock()
	delete(c.entries, planID)
	c.mu.Unlock()
}

package memory

import (
	"context"
	"sync"
	"time"

	"machine-analytics/internal/analytics/application"
)

// DefaultTTL bounds how long an analysis stays memoized.
const DefaultTTL = 15 * time.Minute

// AnalysisCache is an in-memory analysis cache with per-entry expiry.
type AnalysisCache struct {
	mu   sync.RWMutex
	data map[string]entry
	ttl  time.Duration
	now  func() time.Time
}

type entry struct {
	analysis  *application.Analysis
	expiresAt time.Time
}

// NewAnalysisCache constructs a cache. A non-positive ttl uses DefaultTTL.
func NewAnalysisCache(ttl time.Duration) *AnalysisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &AnalysisCache{
		data: make(map[string]entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get returns a live entry.
func (c *AnalysisCache) Get(ctx context.Context, key string) (*application.Analysis, bool, error) {
	_ = ctx
	c.mu.RLock()
	item, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(item.expiresAt) {
		c.mu.Lock()
		if current, still := c.data[key]; still && current.expiresAt.Equal(item.expiresAt) {
			delete(c.data, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return item.analysis, true, nil
}

// Set stores analysis under key.
func (c *AnalysisCache) Set(ctx context.Context, key string, analysis *application.Analysis) error {
	_ = ctx
	if analysis == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked()
	c.data[key] = entry{analysis: analysis, expiresAt: c.now().Add(c.ttl)}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *AnalysisCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *AnalysisCache) sweepLocked() {
	now := c.now()
	for key, item := range c.data {
		if !now.Before(item.expiresAt) {
			delete(c.data, key)
		}
	}
}

package ml

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// CachedEstimator memoizes estimates per model version and feature vector.
// Estimators are deterministic for a fixed version, so a hit is exact.
type CachedEstimator struct {
	next      Estimator
	cache     *cache.Cache
	mu        sync.Mutex
	hitCount  uint64
	missCount uint64
}

// NewCachedEstimator wraps next with a go-cache store.
func NewCachedEstimator(next Estimator, ttl time.Duration) *CachedEstimator {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedEstimator{
		next:  next,
		cache: cache.New(ttl, ttl*2),
	}
}

func estimateKey(version string, features []float64) string {
	var b strings.Builder
	b.WriteString(version)
	for _, v := range features {
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}

// Estimate implements Estimator.
func (c *CachedEstimator) Estimate(ctx context.Context, features []float64) (float64, error) {
	key := estimateKey(c.next.Version(), features)
	if v, found := c.cache.Get(key); found {
		if p, ok := v.(float64); ok {
			c.count(true)
			return p, nil
		}
	}
	c.count(false)

	p, err := c.next.Estimate(ctx, features)
	if err != nil {
		return 0, err
	}
	c.cache.Set(key, p, cache.DefaultExpiration)
	return p, nil
}

// Version implements Estimator.
func (c *CachedEstimator) Version() string {
	return c.next.Version()
}

func (c *CachedEstimator) count(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hitCount++
	} else {
		c.missCount++
	}
}

// Clear flushes the entire cache
func (c *CachedEstimator) Clear() {
	c.cache.Flush()
	c.mu.Lock()
	c.hitCount, c.missCount = 0, 0
	c.mu.Unlock()
}

// Stats returns cache statistics
func (c *CachedEstimator) Stats() (hits, misses uint64, ratio float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hits, misses = c.hitCount, c.missCount
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return hits, misses, ratio
}

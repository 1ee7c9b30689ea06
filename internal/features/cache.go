package features

import (
	"context"
	"fmt"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/yourusername/afl-predictor/internal/metrics"
	"github.com/yourusername/afl-predictor/internal/models"
)

// CacheKey identifies one team's derived history as of a reference point.
type CacheKey struct {
	Team   string           `json:"team"`
	Ref    models.ChronoKey `json:"ref"`
	Window int              `json:"window"`
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s|%s|%d", k.Team, k.Ref, k.Window)
}

// TeamSnapshot is the cached result of deriving one team's window.
type TeamSnapshot struct {
	Form     float64      `json:"form"`
	Averages StatAverages `json:"averages"`
	Matches  int          `json:"matches"`
}

// Cache memoizes team snapshots. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key CacheKey) (*TeamSnapshot, bool)
	Set(ctx context.Context, key CacheKey, snap *TeamSnapshot)
	// Invalidate drops every entry of team whose reference key is at or after
	// from and returns how many were removed.
	Invalidate(ctx context.Context, team string, from models.ChronoKey) int
}

type memoryEntry struct {
	key  CacheKey
	snap TeamSnapshot
}

// MemoryCache is an in-process Cache backed by go-cache.
type MemoryCache struct {
	cache     *cache.Cache
	mu        sync.Mutex
	hitCount  uint64
	missCount uint64
}

// NewMemoryCache creates a memory cache. A zero ttl keeps entries until invalidated.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	expiration, cleanup := cache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		expiration, cleanup = ttl, ttl*2
	}
	return &MemoryCache{cache: cache.New(expiration, cleanup)}
}

// Get retrieves a cached snapshot
func (mc *MemoryCache) Get(_ context.Context, key CacheKey) (*TeamSnapshot, bool) {
	item, found := mc.cache.Get(key.String())
	entry, ok := item.(*memoryEntry)
	hit := found && ok

	mc.mu.Lock()
	if hit {
		mc.hitCount++
	} else {
		mc.missCount++
	}
	mc.mu.Unlock()
	metrics.RecordCacheLookup("memory", hit)

	if !hit {
		return nil, false
	}
	snap := entry.snap
	snap.Averages = copyAverages(entry.snap.Averages)
	return &snap, true
}

// Set stores a snapshot
func (mc *MemoryCache) Set(_ context.Context, key CacheKey, snap *TeamSnapshot) {
	stored := *snap
	stored.Averages = copyAverages(snap.Averages)
	mc.cache.Set(key.String(), &memoryEntry{key: key, snap: stored}, cache.DefaultExpiration)
}

// Invalidate removes the team's entries referenced at or after from
func (mc *MemoryCache) Invalidate(_ context.Context, team string, from models.ChronoKey) int {
	removed := 0
	for k, item := range mc.cache.Items() {
		entry, ok := item.Object.(*memoryEntry)
		if !ok || entry.key.Team != team || entry.key.Ref.Before(from) {
			continue
		}
		mc.cache.Delete(k)
		removed++
	}
	metrics.RecordCacheInvalidation(removed)
	return removed
}

// Clear flushes the entire cache
func (mc *MemoryCache) Clear() {
	mc.cache.Flush()
	mc.mu.Lock()
	mc.hitCount, mc.missCount = 0, 0
	mc.mu.Unlock()
}

// Stats returns cache statistics
func (mc *MemoryCache) Stats() (hits, misses uint64, ratio float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	hits, misses = mc.hitCount, mc.missCount
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return hits, misses, ratio
}

// ItemCount returns the number of items in cache
func (mc *MemoryCache) ItemCount() int {
	return mc.cache.ItemCount()
}

func copyAverages(a StatAverages) StatAverages {
	if a == nil {
		return nil
	}
	out := make(StatAverages, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

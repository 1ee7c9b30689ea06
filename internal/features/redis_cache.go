package features

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/afl-predictor/internal/metrics"
	"github.com/yourusername/afl-predictor/internal/models"
)

// RedisCache is a Cache shared between processes. Each team keeps a sorted
// set of its entry keys scored by reference key so invalidation is a range scan.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *logrus.Logger
}

// NewRedisCache creates a Redis-backed cache. A zero ttl keeps entries until invalidated.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration, log *logrus.Logger) *RedisCache {
	if prefix == "" {
		prefix = "afl:features"
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl, log: log}
}

type redisEntry struct {
	Key  CacheKey     `json:"key"`
	Snap TeamSnapshot `json:"snapshot"`
}

func (rc *RedisCache) entryKey(key CacheKey) string {
	return rc.prefix + ":entry:" + key.String()
}

func (rc *RedisCache) indexKey(team string) string {
	return rc.prefix + ":index:" + team
}

// scoreEpoch is the civil day that refScore counts dates from.
var scoreEpoch = time.Date(1800, time.January, 1, 0, 0, 0, 0, time.UTC).Unix() / 86400

// refScore orders reference keys inside a team index the way ChronoKey.Compare
// does: year, then round, then the civil day of the date.
func refScore(k models.ChronoKey) float64 {
	var day int64
	if !k.Date.IsZero() {
		y, m, d := k.Date.Date()
		day = time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()/86400 - scoreEpoch
		if day < 0 {
			day = 0
		}
		if day > 999999 {
			day = 999999
		}
	}
	return float64(k.Year)*1e9 + float64(k.Round)*1e6 + float64(day)
}

// Get retrieves a cached snapshot. Redis errors count as misses.
func (rc *RedisCache) Get(ctx context.Context, key CacheKey) (*TeamSnapshot, bool) {
	b, err := rc.client.Get(ctx, rc.entryKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			rc.warn(err, "feature cache get failed")
		}
		metrics.RecordCacheLookup("redis", false)
		return nil, false
	}

	var entry redisEntry
	if err := json.Unmarshal(b, &entry); err != nil {
		rc.warn(err, "feature cache entry unreadable")
		metrics.RecordCacheLookup("redis", false)
		return nil, false
	}
	metrics.RecordCacheLookup("redis", true)
	return &entry.Snap, true
}

// Set stores a snapshot and indexes it under its team
func (rc *RedisCache) Set(ctx context.Context, key CacheKey, snap *TeamSnapshot) {
	data, err := json.Marshal(redisEntry{Key: key, Snap: *snap})
	if err != nil {
		rc.warn(err, "feature cache encode failed")
		return
	}

	entryKey := rc.entryKey(key)
	_, err = rc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, entryKey, data, rc.ttl)
		pipe.ZAdd(ctx, rc.indexKey(key.Team), redis.Z{Score: refScore(key.Ref), Member: entryKey})
		return nil
	})
	if err != nil {
		rc.warn(err, "feature cache set failed")
	}
}

// Invalidate removes the team's entries referenced at or after from
func (rc *RedisCache) Invalidate(ctx context.Context, team string, from models.ChronoKey) int {
	index := rc.indexKey(team)
	members, err := rc.client.ZRangeByScore(ctx, index, &redis.ZRangeBy{
		Min: strconv.FormatFloat(refScore(from), 'f', -1, 64),
		Max: "+inf",
	}).Result()
	if err != nil {
		rc.warn(err, "feature cache invalidation scan failed")
		return 0
	}
	if len(members) == 0 {
		return 0
	}

	var removed *redis.IntCmd
	_, err = rc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, members...)
		args := make([]interface{}, len(members))
		for i, m := range members {
			args[i] = m
		}
		pipe.ZRem(ctx, index, args...)
		return nil
	})
	if err != nil {
		rc.warn(err, "feature cache invalidation failed")
		return 0
	}

	n := int(removed.Val())
	metrics.RecordCacheInvalidation(n)
	return n
}

func (rc *RedisCache) warn(err error, msg string) {
	if rc.log != nil {
		rc.log.WithError(err).Warn(msg)
	}
}

// Ping checks connectivity to Redis.
func (rc *RedisCache) Ping(ctx context.Context) error {
	if err := rc.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

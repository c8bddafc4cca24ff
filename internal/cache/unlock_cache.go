package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/confessly/backend/internal/models"
	"github.com/go-redis/redis/v8"
)

const unlockKeyPrefix = "unlocks:"

// UnlockCache keeps per-user unlock listings in Redis so the feed can gate
// blurred photos without a database round trip per page. It is convenience
// state only: entries expire on their own and are dropped after every
// successful purchase, and the unlock engine never reads it.
type UnlockCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewUnlockCache(redisClient *redis.Client, ttl time.Duration) *UnlockCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &UnlockCache{redis: redisClient, ttl: ttl}
}

// Get returns the cached listing for userID, or ok=false on a miss or any
// Redis failure. Failures are logged and treated as misses.
func (c *UnlockCache) Get(ctx context.Context, userID string) (*models.UserUnlocks, bool) {
	data, err := c.redis.Get(ctx, unlockKeyPrefix+userID).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("[CACHE] Unlock cache read failed for %s: %v", userID, err)
		return nil, false
	}

	var unlocks models.UserUnlocks
	if err := json.Unmarshal([]byte(data), &unlocks); err != nil {
		log.Printf("[CACHE] Corrupt unlock cache entry for %s: %v", userID, err)
		return nil, false
	}
	return &unlocks, true
}

// Set stores the listing with the configured TTL. Best effort.
func (c *UnlockCache) Set(ctx context.Context, userID string, unlocks *models.UserUnlocks) {
	data, err := json.Marshal(unlocks)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, unlockKeyPrefix+userID, data, c.ttl).Err(); err != nil {
		log.Printf("[CACHE] Unlock cache write failed for %s: %v", userID, err)
	}
}

// Invalidate drops the cached listing after a mutation.
func (c *UnlockCache) Invalidate(ctx context.Context, userID string) {
	if err := c.redis.Del(ctx, unlockKeyPrefix+userID).Err(); err != nil {
		log.Printf("[CACHE] Unlock cache invalidation failed for %s: %v", userID, err)
	}
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"transferflow/internal/domain"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// LotCache is a two-level cache for computed lot views: an L1 map for the hot
// path and Redis as L2 with a TTL. Lots are derived data, so the cache is
// invalidated wholesale on any item mutation rather than patched in place.
type LotCache struct {
	l1      map[string][]domain.Lot
	l1Mutex sync.RWMutex

	redisClient *redis.Client
	ttl         time.Duration

	logger *zap.Logger
}

func NewLotCache(redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *LotCache {
	return &LotCache{
		l1:          make(map[string][]domain.Lot),
		redisClient: redisClient,
		ttl:         ttl,
		logger:      logger,
	}
}

func cacheKey(view domain.ViewMode, storeID string) string {
	return fmt.Sprintf("lots:%s:%s", view, storeID)
}

// Get returns a cached view, trying L1 before Redis.
func (c *LotCache) Get(ctx context.Context, view domain.ViewMode, storeID string) ([]domain.Lot, bool) {
	key := cacheKey(view, storeID)

	c.l1Mutex.RLock()
	lots, ok := c.l1[key]
	c.l1Mutex.RUnlock()
	if ok {
		c.logger.Debug("lot cache L1 hit", zap.String("key", key))
		return lots, true
	}

	if c.redisClient == nil {
		return nil, false
	}

	data, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("lot cache L2 read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var cached []domain.Lot
	if err := json.Unmarshal([]byte(data), &cached); err != nil {
		c.logger.Warn("lot cache L2 entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	c.l1Mutex.Lock()
	c.l1[key] = cached
	c.l1Mutex.Unlock()

	c.logger.Debug("lot cache L2 hit", zap.String("key", key))
	return cached, true
}

// Set stores a computed view in both levels.
func (c *LotCache) Set(ctx context.Context, view domain.ViewMode, storeID string, lots []domain.Lot) {
	key := cacheKey(view, storeID)

	c.l1Mutex.Lock()
	c.l1[key] = lots
	c.l1Mutex.Unlock()

	if c.redisClient == nil {
		return
	}

	data, err := json.Marshal(lots)
	if err != nil {
		c.logger.Warn("marshaling lots for cache failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.redisClient.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("lot cache L2 write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateAll drops every cached view. Called after any item mutation.
// The Redis sweep matches by pattern rather than the keys this process has
// seen: entries written by a previous run or another instance must not
// outlive a mutation either.
func (c *LotCache) InvalidateAll(ctx context.Context) {
	c.l1Mutex.Lock()
	c.l1 = make(map[string][]domain.Lot)
	c.l1Mutex.Unlock()

	if c.redisClient == nil {
		return
	}

	var cursor uint64
	for {
		keys, next, err := c.redisClient.Scan(ctx, cursor, "lots:*", 100).Result()
		if err != nil {
			c.logger.Warn("lot cache L2 invalidation failed", zap.Error(err))
			return
		}
		if len(keys) > 0 {
			if err := c.redisClient.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warn("lot cache L2 invalidation failed", zap.Error(err))
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"transferflow/internal/domain"
)

// setupTestRedis connects to a local Redis; tests needing L2 are skipped when
// no server is listening.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 1})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("test redis not available: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func sampleLots() []domain.Lot {
	return []domain.Lot{{
		Key:           "S1::Nike::none",
		SourceStoreID: "S1",
		Brand:         "Nike",
		TotalQuantity: 5,
	}}
}

func TestLotCache_SetAndGet(t *testing.T) {
	c := NewLotCache(nil, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, ok := c.Get(ctx, domain.ViewNetwork, "S2")
	assert.False(t, ok)

	c.Set(ctx, domain.ViewNetwork, "S2", sampleLots())

	lots, ok := c.Get(ctx, domain.ViewNetwork, "S2")
	assert.True(t, ok)
	assert.Len(t, lots, 1)
	assert.Equal(t, "Nike", lots[0].Brand)
}

func TestLotCache_KeysAreViewAndStoreScoped(t *testing.T) {
	c := NewLotCache(nil, time.Minute, zap.NewNop())
	ctx := context.Background()

	c.Set(ctx, domain.ViewNetwork, "S2", sampleLots())

	_, ok := c.Get(ctx, domain.ViewMyStock, "S2")
	assert.False(t, ok)
	_, ok = c.Get(ctx, domain.ViewNetwork, "S3")
	assert.False(t, ok)
}

func TestLotCache_InvalidateAll(t *testing.T) {
	c := NewLotCache(nil, time.Minute, zap.NewNop())
	ctx := context.Background()

	c.Set(ctx, domain.ViewNetwork, "S2", sampleLots())
	c.Set(ctx, domain.ViewMyStock, "S1", sampleLots())

	c.InvalidateAll(ctx)

	_, ok := c.Get(ctx, domain.ViewNetwork, "S2")
	assert.False(t, ok)
	_, ok = c.Get(ctx, domain.ViewMyStock, "S1")
	assert.False(t, ok)
}

func TestLotCache_InvalidateAllSweepsForeignRedisEntries(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	// A view written by a previous process run: this cache's L1 has never
	// seen the key.
	stale, err := json.Marshal(sampleLots())
	assert.NoError(t, err)
	assert.NoError(t, client.Set(ctx, "lots:network:S2", stale, time.Minute).Err())

	c := NewLotCache(client, time.Minute, zap.NewNop())

	lots, ok := c.Get(ctx, domain.ViewNetwork, "S2")
	assert.True(t, ok, "the pre-existing entry should be served before any mutation")
	assert.Len(t, lots, 1)

	c.InvalidateAll(ctx)

	_, ok = c.Get(ctx, domain.ViewNetwork, "S2")
	assert.False(t, ok, "invalidation must remove entries this process never wrote")
	assert.Equal(t, int64(0), client.Exists(ctx, "lots:network:S2").Val())
}

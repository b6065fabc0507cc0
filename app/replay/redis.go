package replay

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "webhook-replay:"

// RedisGuard backs the replay window with shared storage so duplicate
// suppression holds across instances. SET NX with a TTL gives exactly one
// winner per key per window and Redis handles the pruning.
type RedisGuard struct {
	rdb    *redis.Client
	window time.Duration
}

func NewRedisGuard(rdb *redis.Client, window time.Duration) *RedisGuard {
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisGuard{rdb: rdb, window: window}
}

func (g *RedisGuard) Remember(ctx context.Context, key string) (bool, error) {
	stored, err := g.rdb.SetNX(ctx, redisKeyPrefix+key, 1, g.window).Result()
	if err != nil {
		return false, err
	}
	return !stored, nil
}

func (g *RedisGuard) Forget(ctx context.Context, key string) error {
	return g.rdb.Del(ctx, redisKeyPrefix+key).Err()
}

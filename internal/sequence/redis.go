package sequence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "appointments:day_counter:"

// RedisAllocator uses INCR on one key per day. Keys carry no expiry: a
// counter that disappeared would restart at 1 and reissue numbers.
type RedisAllocator struct {
	client *redis.Client
}

func NewRedisAllocator(client *redis.Client) *RedisAllocator {
	if client == nil {
		panic("sequence: redis client required")
	}
	return &RedisAllocator{client: client}
}

func (a *RedisAllocator) Allocate(ctx context.Context, forDate time.Time) (string, error) {
	key := DayKey(forDate)
	seq, err := a.client.Incr(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return "", unavailable("redis", err)
	}
	return Format(key, seq), nil
}

package api

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateCounter 是限流所需的 Redis 操作，*redis.Client 满足该接口。
type RateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// Subscriber 订阅导出通知，*redis.Client 满足该接口。
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

func incrWithTTL(ctx context.Context, client RateCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}

func exportRateKey(resumeID uint) string {
	return fmt.Sprintf("export_rate:%d", resumeID)
}

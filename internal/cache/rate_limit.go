package cache

import (
	"context"
	"fmt"
	"time"
)

// FixedWindowAllow 固定窗口限流
// Redis 未启用时放行。返回 false 表示该键在窗口内的调用数已超过 max。
func FixedWindowAllow(ctx context.Context, key string, max int, window time.Duration) (bool, error) {
	if !Enabled() || max <= 0 {
		return true, nil
	}
	fullKey := buildKey(fmt.Sprintf("ratelimit:%s", key))
	count, err := redisClient.Incr(ctx, fullKey).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		if err := redisClient.Expire(ctx, fullKey, window).Err(); err != nil {
			return true, err
		}
	}
	return count <= int64(max), nil
}

package cache

import (
	"context"
	"time"

	"CreditDesk/storage/redis"
)

// 分布式锁，防止多实例重复执行（用量汇总、草稿清理等定时任务）
// SetNX 即可实现，锁持有者崩溃后靠 TTL 自动释放
const (
	lockPrefix = "lock"
)

func TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	fullkey := redis.Key(lockPrefix, key)

	result, err := redis.Client().SetNX(ctx, fullkey, 1, ttl).Result()
	if err != nil {
		return false, err
	}

	return result, nil
}

func Unlock(ctx context.Context, key string) error {
	fullkey := redis.Key(lockPrefix, key)

	return redis.Client().Del(ctx, fullkey).Err()
}

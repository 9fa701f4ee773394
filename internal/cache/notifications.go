package cache

import (
	"context"
	"strconv"
	"time"

	"CreditDesk/storage/redis"
)

// 余额不足等控制台提醒的"已忽略"集合
// 只是 UI 状态，丢了最多重新弹一次，放 Redis 足够
const (
	notifyPrefix = "notify"

	dismissedTTL = 30 * 24 * time.Hour
)

func dismissedKey(tenantID int64) string {
	return redis.Key(notifyPrefix, "dismissed", strconv.FormatInt(tenantID, 10))
}

// DismissNotification 记录一条被用户忽略的提醒
func DismissNotification(ctx context.Context, tenantID int64, notificationID string) error {
	key := dismissedKey(tenantID)

	pipe := redis.Client().Pipeline()
	pipe.SAdd(ctx, key, notificationID)
	pipe.Expire(ctx, key, dismissedTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// GetDismissedNotifications 返回租户全部已忽略的提醒 ID
func GetDismissedNotifications(ctx context.Context, tenantID int64) ([]string, error) {
	return redis.Client().SMembers(ctx, dismissedKey(tenantID)).Result()
}

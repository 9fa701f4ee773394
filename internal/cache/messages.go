package cache

import (
	"context"
	"time"

	"CreditDesk/storage/redis"
)

// 消息幂等标记：消费者处理前先 SetNX 占位，防止重投导致重复副作用
const messagePrefix = "msg"

// TryMarkMessageProcessing 占位成功返回 true，已有占位返回 false
func TryMarkMessageProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	key := redis.Key(messagePrefix, "processing", messageID)
	return redis.Client().SetNX(ctx, key, 1, ttl).Result()
}

// UnmarkMessageProcessing 处理失败时清除占位，允许重试
func UnmarkMessageProcessing(ctx context.Context, messageID string) error {
	key := redis.Key(messagePrefix, "processing", messageID)
	return redis.Client().Del(ctx, key).Err()
}

// MarkMessageProcessed 处理完成后延长标记，防止迟到的重投
func MarkMessageProcessed(ctx context.Context, messageID string, ttl time.Duration) error {
	key := redis.Key(messagePrefix, "processing", messageID)
	return redis.Client().Set(ctx, key, 1, ttl).Err()
}

package ringlog

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisSink 基于 Redis List 的实现，供控制台在会话之外回捞诊断日志
// LPUSH + LTRIM 保证条数封顶；字节封顶靠单条截断近似
type RedisSink struct {
	client     *redis.Client
	key        string
	maxEntries int
	maxBytes   int
}

func NewRedisSink(client *redis.Client, key string, maxEntries, maxBytes int) *RedisSink {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	if maxBytes <= 0 {
		maxBytes = 64 * 1024
	}
	return &RedisSink{
		client:     client,
		key:        key,
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
	}
}

func (s *RedisSink) Append(ctx context.Context, entry string) error {
	if perEntry := s.maxBytes / s.maxEntries; perEntry > 0 {
		entry = truncate(entry, perEntry)
	}

	pipe := s.client.Pipeline()
	pipe.LPush(ctx, s.key, entry)
	pipe.LTrim(ctx, s.key, 0, int64(s.maxEntries-1))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisSink) GetAll(ctx context.Context) ([]string, error) {
	// List 头部是最新条目，翻转成追加顺序返回
	raw, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]string, len(raw))
	for i, entry := range raw {
		out[len(raw)-1-i] = entry
	}
	return out, nil
}

func (s *RedisSink) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

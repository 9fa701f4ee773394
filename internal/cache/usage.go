package cache

import (
	"context"
	"time"

	"CreditDesk/storage/redis"
)

// 用量计数：先在 Redis hash 里累加，由 scheduler 定时汇总进 Postgres
// Key: cdsk:usage:api:{day}  field: {tenant_id}:{route_class}:req / :err
// Key: cdsk:usage:cache:{day}  field: {cache}:hit / :miss
const (
	usagePrefix = "usage"

	// 汇总前计数器的保底 TTL，防止 scheduler 长期宕机时堆积
	usageCounterTTL = 72 * time.Hour
)

func usageDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// APIUsageKey 某一天的 API 计数 hash key
func APIUsageKey(day string) string {
	return redis.Key(usagePrefix, "api", day)
}

// CacheUsageKey 某一天的缓存命中计数 hash key
func CacheUsageKey(day string) string {
	return redis.Key(usagePrefix, "cache", day)
}

// IncrAPIRequest 累加一次 API 请求计数
func IncrAPIRequest(ctx context.Context, tenantID, routeClass string, isError bool) {
	key := APIUsageKey(usageDay(time.Now()))
	field := tenantID + ":" + routeClass + ":req"

	pipe := redis.Client().Pipeline()
	pipe.HIncrBy(ctx, key, field, 1)
	if isError {
		pipe.HIncrBy(ctx, key, tenantID+":"+routeClass+":err", 1)
	}
	pipe.Expire(ctx, key, usageCounterTTL)
	_, _ = pipe.Exec(ctx)
}

// IncrCacheHit 累加一次缓存命中
func IncrCacheHit(ctx context.Context, cacheName string) {
	incrCacheUsage(ctx, cacheName, "hit")
}

// IncrCacheMiss 累加一次缓存未命中
func IncrCacheMiss(ctx context.Context, cacheName string) {
	incrCacheUsage(ctx, cacheName, "miss")
}

func incrCacheUsage(ctx context.Context, cacheName, outcome string) {
	key := CacheUsageKey(usageDay(time.Now()))

	pipe := redis.Client().Pipeline()
	pipe.HIncrBy(ctx, key, cacheName+":"+outcome, 1)
	pipe.Expire(ctx, key, usageCounterTTL)
	_, _ = pipe.Exec(ctx)
}

// ReadUsageCounters 读取某天的全部计数，供汇总任务消费
func ReadUsageCounters(ctx context.Context, key string) (map[string]string, error) {
	return redis.Client().HGetAll(ctx, key).Result()
}

// DropUsageCounters 汇总完成后删除计数器
func DropUsageCounters(ctx context.Context, key string) error {
	return redis.Client().Del(ctx, key).Err()
}

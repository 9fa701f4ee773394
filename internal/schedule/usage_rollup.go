package schedule

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"CreditDesk/config"
	"CreditDesk/internal/cache"
	"CreditDesk/internal/model"
	"CreditDesk/pkg/logger"
	"CreditDesk/storage/database"
)

// 用量汇总：把 Redis 里的实时计数滚动进 Postgres 日聚合表
// 多实例部署时靠分布式锁保证同一轮只有一个实例执行

const rollupLockTTL = 5 * time.Minute

// StartUsageRollup 启动汇总循环，ctx 取消后退出
func StartUsageRollup(ctx context.Context) {
	interval := time.Duration(config.Cfg.UsageRollupIntervalMinutes) * time.Minute

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Logger.Info("Usage rollup loop started",
		zap.Duration("interval", interval),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Logger.Info("Usage rollup loop stopped")
			return
		case <-ticker.C:
			runUsageRollup(ctx)
		}
	}
}

func runUsageRollup(ctx context.Context) {
	acquired, err := cache.TryLock(ctx, "usage_rollup", rollupLockTTL)
	if err != nil {
		logger.Logger.Error("Failed to acquire rollup lock", zap.Error(err))
		return
	}
	if !acquired {
		return
	}
	defer func() {
		if err := cache.Unlock(ctx, "usage_rollup"); err != nil {
			logger.Logger.Warn("Failed to release rollup lock", zap.Error(err))
		}
	}()

	// 汇总今天和昨天，跨午夜的计数不能丢
	now := time.Now().UTC()
	for _, day := range []time.Time{now, now.AddDate(0, 0, -1)} {
		dayStr := day.Format("2006-01-02")
		if err := rollupAPIUsage(ctx, dayStr); err != nil {
			logger.Logger.Error("Failed to roll up api usage",
				zap.String("day", dayStr),
				zap.Error(err),
			)
		}
		if err := rollupCacheUsage(ctx, dayStr); err != nil {
			logger.Logger.Error("Failed to roll up cache usage",
				zap.String("day", dayStr),
				zap.Error(err),
			)
		}
	}

	// 前天的计数不会再变化，最后落库一次后直接删掉，不等 TTL 过期
	finalDay := now.AddDate(0, 0, -2).Format("2006-01-02")
	if err := rollupAPIUsage(ctx, finalDay); err != nil {
		logger.Logger.Error("Failed to finalize api usage",
			zap.String("day", finalDay),
			zap.Error(err),
		)
	} else if err := cache.DropUsageCounters(ctx, cache.APIUsageKey(finalDay)); err != nil {
		logger.Logger.Warn("Failed to drop api usage counters",
			zap.String("day", finalDay),
			zap.Error(err),
		)
	}
	if err := rollupCacheUsage(ctx, finalDay); err != nil {
		logger.Logger.Error("Failed to finalize cache usage",
			zap.String("day", finalDay),
			zap.Error(err),
		)
	} else if err := cache.DropUsageCounters(ctx, cache.CacheUsageKey(finalDay)); err != nil {
		logger.Logger.Warn("Failed to drop cache usage counters",
			zap.String("day", finalDay),
			zap.Error(err),
		)
	}
}

// rollupAPIUsage 字段格式 {tenant_id}:{route_class}:req / :err
func rollupAPIUsage(ctx context.Context, day string) error {
	key := cache.APIUsageKey(day)
	counters, err := cache.ReadUsageCounters(ctx, key)
	if err != nil {
		return err
	}
	if len(counters) == 0 {
		return nil
	}

	dayTime, err := time.Parse("2006-01-02", day)
	if err != nil {
		return err
	}

	type bucket struct {
		requests int64
		errors   int64
	}
	buckets := map[[2]string]*bucket{}

	for field, raw := range counters {
		parts := strings.Split(field, ":")
		if len(parts) != 3 {
			continue
		}
		count, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}

		id := [2]string{parts[0], parts[1]}
		b := buckets[id]
		if b == nil {
			b = &bucket{}
			buckets[id] = b
		}
		switch parts[2] {
		case "req":
			b.requests += count
		case "err":
			b.errors += count
		}
	}

	db := database.DB().WithContext(ctx)
	for id, b := range buckets {
		tenantID, err := strconv.ParseInt(id[0], 10, 64)
		if err != nil {
			continue
		}

		stat := &model.APIUsageStat{
			Day:          dayTime,
			TenantID:     tenantID,
			RouteClass:   id[1],
			RequestCount: b.requests,
			ErrorCount:   b.errors,
		}
		err = db.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "day"}, {Name: "tenant_id"}, {Name: "route_class"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"request_count": stat.RequestCount,
				"error_count":   stat.ErrorCount,
				"updated_at":    time.Now(),
			}),
		}).Create(stat).Error
		if err != nil {
			return err
		}
	}

	logger.Logger.Info("API usage rolled up",
		zap.String("day", day),
		zap.Int("buckets", len(buckets)),
	)
	return nil
}

// rollupCacheUsage 字段格式 {cache}:hit / :miss
func rollupCacheUsage(ctx context.Context, day string) error {
	key := cache.CacheUsageKey(day)
	counters, err := cache.ReadUsageCounters(ctx, key)
	if err != nil {
		return err
	}
	if len(counters) == 0 {
		return nil
	}

	dayTime, err := time.Parse("2006-01-02", day)
	if err != nil {
		return err
	}

	type bucket struct {
		hits   int64
		misses int64
	}
	buckets := map[string]*bucket{}

	for field, raw := range counters {
		parts := strings.Split(field, ":")
		if len(parts) != 2 {
			continue
		}
		count, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}

		b := buckets[parts[0]]
		if b == nil {
			b = &bucket{}
			buckets[parts[0]] = b
		}
		switch parts[1] {
		case "hit":
			b.hits += count
		case "miss":
			b.misses += count
		}
	}

	db := database.DB().WithContext(ctx)
	for cacheName, b := range buckets {
		stat := &model.CacheUsageStat{
			Day:    dayTime,
			Cache:  cacheName,
			Hits:   b.hits,
			Misses: b.misses,
		}
		err = db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "day"}, {Name: "cache"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"hits":       stat.Hits,
				"misses":     stat.Misses,
				"updated_at": time.Now(),
			}),
		}).Create(stat).Error
		if err != nil {
			return err
		}
	}

	logger.Logger.Info("Cache usage rolled up",
		zap.String("day", day),
		zap.Int("buckets", len(buckets)),
	)
	return nil
}

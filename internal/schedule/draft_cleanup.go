package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"CreditDesk/config"
	"CreditDesk/internal/cache"
	"CreditDesk/internal/model"
	"CreditDesk/pkg/logger"
	"CreditDesk/storage/database"
)

// 草稿清理：超过保留期没动过的草稿直接删掉
// 缓存副本不用管，TTL 会自己过期

const (
	draftCleanupInterval = 24 * time.Hour
	draftCleanupLockTTL  = 10 * time.Minute
)

// StartDraftCleanup 启动清理循环，ctx 取消后退出
func StartDraftCleanup(ctx context.Context) {
	ticker := time.NewTicker(draftCleanupInterval)
	defer ticker.Stop()

	logger.Logger.Info("Draft cleanup loop started",
		zap.Int("retention_days", config.Cfg.DraftRetentionDays),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Logger.Info("Draft cleanup loop stopped")
			return
		case <-ticker.C:
			runDraftCleanup(ctx)
		}
	}
}

func runDraftCleanup(ctx context.Context) {
	acquired, err := cache.TryLock(ctx, "draft_cleanup", draftCleanupLockTTL)
	if err != nil {
		logger.Logger.Error("Failed to acquire cleanup lock", zap.Error(err))
		return
	}
	if !acquired {
		return
	}
	defer func() {
		if err := cache.Unlock(ctx, "draft_cleanup"); err != nil {
			logger.Logger.Warn("Failed to release cleanup lock", zap.Error(err))
		}
	}()

	cutoff := time.Now().AddDate(0, 0, -config.Cfg.DraftRetentionDays)

	// 保留期一过就是真删除，Clear 留下的软删除行也在这里一并清掉
	result := database.DB().WithContext(ctx).
		Unscoped().
		Where("saved_at < ?", cutoff).
		Delete(&model.OnboardingProgress{})
	if result.Error != nil {
		logger.Logger.Error("Failed to delete stale drafts", zap.Error(result.Error))
		return
	}

	if result.RowsAffected > 0 {
		logger.Logger.Info("Stale drafts deleted",
			zap.Int64("count", result.RowsAffected),
			zap.Time("cutoff", cutoff),
		)
	}
}

package schedule

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"CreditDesk/internal/cache"
	"CreditDesk/internal/model"
	"CreditDesk/internal/service"
	"CreditDesk/pkg/errors"
	"CreditDesk/pkg/logger"
	"CreditDesk/storage/database"
)

// 用量计费：把前一天的 API 调用量折算成额度扣减
// 前一天的聚合行在 rollup 终结后不再变化，这里按天只扣一次

const (
	usageChargeInterval = 24 * time.Hour
	usageChargeLockTTL  = 10 * time.Minute

	// requestsPerCredit 每个额度覆盖的请求数，不足一个额度按一个算
	requestsPerCredit = 1000
)

// StartUsageCharge 启动计费循环，ctx 取消后退出
func StartUsageCharge(ctx context.Context) {
	ticker := time.NewTicker(usageChargeInterval)
	defer ticker.Stop()

	logger.Logger.Info("Usage charge loop started",
		zap.Int("requests_per_credit", requestsPerCredit),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Logger.Info("Usage charge loop stopped")
			return
		case <-ticker.C:
			runUsageCharge(ctx)
		}
	}
}

func runUsageCharge(ctx context.Context) {
	acquired, err := cache.TryLock(ctx, "usage_charge", usageChargeLockTTL)
	if err != nil {
		logger.Logger.Error("Failed to acquire charge lock", zap.Error(err))
		return
	}
	if !acquired {
		return
	}
	defer func() {
		if err := cache.Unlock(ctx, "usage_charge"); err != nil {
			logger.Logger.Warn("Failed to release charge lock", zap.Error(err))
		}
	}()

	day := time.Now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)

	// 统计表按 (天, 租户, 路由类) 一行，结账前先按租户汇总
	var totals []tenantUsage
	err = database.DB().WithContext(ctx).
		Model(&model.APIUsageStat{}).
		Select("tenant_id, SUM(request_count) AS request_count").
		Where("day = ?", day).
		Group("tenant_id").
		Scan(&totals).Error
	if err != nil {
		logger.Logger.Error("Failed to load usage stats for charging",
			zap.Time("day", day),
			zap.Error(err),
		)
		return
	}

	for _, total := range totals {
		chargeTenant(ctx, day, total)
	}
}

type tenantUsage struct {
	TenantID     int64
	RequestCount int64
}

// chargeTenant 给单个租户结一天的账，按 (天, 租户) 幂等
func chargeTenant(ctx context.Context, day time.Time, stat tenantUsage) {
	cost := usageCost(stat.RequestCount)
	if cost == 0 {
		return
	}

	dayStr := day.Format("2006-01-02")
	chargeID := fmt.Sprintf("usage_charge_%s_%d", dayStr, stat.TenantID)

	acquired, err := cache.TryMarkMessageProcessing(ctx, chargeID, 48*time.Hour)
	if err != nil {
		logger.Logger.Error("Failed to check charge marker",
			zap.String("charge_id", chargeID),
			zap.Error(err),
		)
		return
	}
	if !acquired {
		return
	}

	note := fmt.Sprintf("metered usage for %s (%d requests)", dayStr, stat.RequestCount)
	err = service.Credit().Deduct(ctx, stat.TenantID, cost, model.CreditReasonAPIUsage, note)
	if err != nil {
		if err == errors.CreditInsufficient {
			// 余额不够也不挂账重试，标记已结防止每轮反复打日志
			logger.Logger.Warn("Tenant balance insufficient for metered usage",
				zap.Int64("tenant_id", stat.TenantID),
				zap.String("day", dayStr),
				zap.Int("cost", cost),
			)
			return
		}

		_ = cache.UnmarkMessageProcessing(ctx, chargeID)
		logger.Logger.Error("Failed to charge metered usage",
			zap.Int64("tenant_id", stat.TenantID),
			zap.String("day", dayStr),
			zap.Error(err),
		)
		return
	}

	logger.Logger.Info("Metered usage charged",
		zap.Int64("tenant_id", stat.TenantID),
		zap.String("day", dayStr),
		zap.Int64("requests", stat.RequestCount),
		zap.Int("cost", cost),
	)
}

// usageCost 请求数折算额度，向上取整
func usageCost(requests int64) int {
	if requests <= 0 {
		return 0
	}
	return int((requests + requestsPerCredit - 1) / requestsPerCredit)
}

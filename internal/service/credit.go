package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"CreditDesk/internal/cache"
	"CreditDesk/internal/model"
	"CreditDesk/internal/model/dto"
	"CreditDesk/internal/queue"
	"CreditDesk/pkg/errors"
	"CreditDesk/pkg/logger"
	"CreditDesk/pkg/metrics"
	"CreditDesk/storage/database"
)

// lowCreditThreshold 余额低于这个值时控制台弹提醒
const lowCreditThreshold = 50

// historyPageSize 流水分页大小
const historyPageSize = 20

var (
	creditService *CreditService
	creditOnce    sync.Once
)

func Credit() *CreditService {
	creditOnce.Do(func() {
		creditService = &CreditService{}
	})
	return creditService
}

// CreditService 额度流水：只追加不修改，余额取最新一条的 balance_after
type CreditService struct{}

// Grant 充值
func (s *CreditService) Grant(ctx context.Context, tenantID int64, amount int, reason, note string) error {
	if amount <= 0 {
		return errors.CreditAmountInvalid
	}

	db := database.DB().WithContext(ctx)
	err := db.Transaction(func(tx *gorm.DB) error {
		currentBalance, err := latestBalance(tx, tenantID)
		if err != nil {
			return err
		}

		newBalance := currentBalance + amount
		transaction := &model.CreditTransaction{
			TenantID:        tenantID,
			TransactionType: model.TransactionTypeGrant,
			Reason:          reason,
			Amount:          amount,
			BalanceAfter:    newBalance,
			Note:            note,
		}
		if err := tx.Create(transaction).Error; err != nil {
			return fmt.Errorf("failed to create grant transaction: %w", err)
		}

		logger.Logger.Info("Credits granted",
			zap.Int64("tenant_id", tenantID),
			zap.String("reason", reason),
			zap.Int("amount", amount),
			zap.Int("balance_after", newBalance),
		)
		return nil
	})
	if err != nil {
		return err
	}

	if m := metrics.GetMetrics(); m != nil {
		m.RecordCreditTransaction(ctx, string(model.TransactionTypeGrant), reason)
	}
	s.invalidateBalance(ctx, tenantID)
	return nil
}

// Deduct 扣减，余额不足时拒绝
func (s *CreditService) Deduct(ctx context.Context, tenantID int64, amount int, reason, note string) error {
	if amount <= 0 {
		return errors.CreditAmountInvalid
	}

	var newBalance int
	db := database.DB().WithContext(ctx)
	err := db.Transaction(func(tx *gorm.DB) error {
		currentBalance, err := latestBalance(tx, tenantID)
		if err != nil {
			return err
		}

		if currentBalance < amount {
			return errors.CreditInsufficient
		}

		newBalance = currentBalance - amount
		transaction := &model.CreditTransaction{
			TenantID:        tenantID,
			TransactionType: model.TransactionTypeDeduct,
			Reason:          reason,
			Amount:          amount,
			BalanceAfter:    newBalance,
			Note:            note,
		}
		if err := tx.Create(transaction).Error; err != nil {
			return fmt.Errorf("failed to create deduct transaction: %w", err)
		}

		logger.Logger.Info("Credits deducted",
			zap.Int64("tenant_id", tenantID),
			zap.String("reason", reason),
			zap.Int("amount", amount),
			zap.Int("balance_after", newBalance),
		)
		return nil
	})
	if err != nil {
		if err == errors.CreditInsufficient {
			if m := metrics.GetMetrics(); m != nil {
				m.RecordCreditInsufficient(ctx, reason)
			}
		}
		return err
	}

	if m := metrics.GetMetrics(); m != nil {
		m.RecordCreditTransaction(ctx, string(model.TransactionTypeDeduct), reason)
	}
	s.invalidateBalance(ctx, tenantID)

	// 跨过阈值才提醒，避免每次扣减都刷屏
	if newBalance < lowCreditThreshold && newBalance+amount >= lowCreditThreshold {
		warning := model.CreditLowWarningMessage{
			TenantID:  tenantID,
			Balance:   newBalance,
			Timestamp: time.Now().Unix(),
		}

		// 联系方式在这里填好，查不到就只发控制台提醒不发邮件
		var tenant model.Tenant
		if err := db.First(&tenant, tenantID).Error; err == nil {
			warning.Email = tenant.ContactEmail
			warning.CompanyName = tenant.CompanyName
		}
		if err := queue.PublishCreditLowWarning(warning); err != nil {
			logger.Logger.Warn("Failed to publish low credit warning",
				zap.Int64("tenant_id", tenantID),
				zap.Int("balance", newBalance),
				zap.Error(err),
			)
		}
	}

	return nil
}

// Balance 查余额，带缓存
func (s *CreditService) Balance(ctx context.Context, tenantID int64) (*dto.CreditBalanceData, error) {
	cacheKey := strconv.FormatInt(tenantID, 10)

	var cached dto.CreditBalanceData
	hit, err := cache.CreditBalanceProtectedCache.Get(ctx, cacheKey, &cached)
	if err == nil && hit && !cached.AsOf.IsZero() {
		cache.IncrCacheHit(ctx, "protected")
		return &cached, nil
	}
	cache.IncrCacheMiss(ctx, "protected")

	balance, err := latestBalance(database.DB().WithContext(ctx), tenantID)
	if err != nil {
		return nil, err
	}

	data := &dto.CreditBalanceData{
		Balance:   balance,
		AsOf:      time.Now(),
		LowCredit: balance < lowCreditThreshold,
	}

	if err := cache.CreditBalanceProtectedCache.Set(ctx, cacheKey, data); err != nil {
		logger.Logger.Warn("Failed to cache credit balance",
			zap.Int64("tenant_id", tenantID),
			zap.Error(err),
		)
	}

	return data, nil
}

// History 流水分页，游标为上一页最后一条的 ID
func (s *CreditService) History(ctx context.Context, tenantID int64, cursor string) (*dto.CreditHistoryData, error) {
	db := database.DB().WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("id DESC").
		Limit(historyPageSize + 1)

	if cursor != "" {
		cursorID, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			return nil, errors.ValidationFailed
		}
		db = db.Where("id < ?", cursorID)
	}

	var rows []model.CreditTransaction
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query credit history: %w", err)
	}

	data := &dto.CreditHistoryData{}
	hasMore := len(rows) > historyPageSize
	if hasMore {
		rows = rows[:historyPageSize]
	}

	for _, row := range rows {
		data.Transactions = append(data.Transactions, dto.CreditTransactionDTO{
			ID:              strconv.FormatInt(row.ID, 10),
			TransactionType: string(row.TransactionType),
			Reason:          row.Reason,
			Amount:          row.Amount,
			BalanceAfter:    row.BalanceAfter,
			Note:            row.Note,
			CreatedAt:       row.CreatedAt,
		})
	}
	if hasMore && len(rows) > 0 {
		data.NextCursor = strconv.FormatInt(rows[len(rows)-1].ID, 10)
	}

	return data, nil
}

// EnsureInitialGrant 兜底补发默认授信，worker 消费 tenant.onboarded 时调用
// 已经有过 initial_grant 流水就直接跳过，保证幂等
func (s *CreditService) EnsureInitialGrant(ctx context.Context, tenantID int64, amount int) error {
	var count int64
	err := database.DB().WithContext(ctx).
		Model(&model.CreditTransaction{}).
		Where("tenant_id = ? AND reason = ?", tenantID, model.CreditReasonInitialGrant).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check initial grant: %w", err)
	}
	if count > 0 {
		return nil
	}

	return s.Grant(ctx, tenantID, amount, model.CreditReasonInitialGrant, "welcome credit bundle")
}

// invalidateBalance 写入后清掉余额缓存，下次查询回源
func (s *CreditService) invalidateBalance(ctx context.Context, tenantID int64) {
	if err := cache.CreditBalanceProtectedCache.Delete(ctx, strconv.FormatInt(tenantID, 10)); err != nil {
		logger.Logger.Warn("Failed to invalidate balance cache",
			zap.Int64("tenant_id", tenantID),
			zap.Error(err),
		)
	}
}

// latestBalance 取最新流水的 balance_after，无流水视为 0
func latestBalance(db *gorm.DB, tenantID int64) (int, error) {
	var latest model.CreditTransaction
	err := db.Where("tenant_id = ?", tenantID).
		Order("id DESC").
		First(&latest).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query credit balance: %w", err)
	}
	return latest.BalanceAfter, nil
}

// DismissNotification 记录用户关闭的余额提醒
func (s *CreditService) DismissNotification(ctx context.Context, tenantID int64, notificationID string) error {
	return cache.DismissNotification(ctx, tenantID, notificationID)
}

// DismissedNotifications 返回已关闭的提醒列表
func (s *CreditService) DismissedNotifications(ctx context.Context, tenantID int64) (*dto.DismissedNotificationsData, error) {
	ids, err := cache.GetDismissedNotifications(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &dto.DismissedNotificationsData{NotificationIDs: ids}, nil
}

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CreditDesk/internal/model"
	"CreditDesk/internal/model/dto"
	"CreditDesk/pkg/errors"
	"CreditDesk/storage/database"
)

// maxUsageRangeDays 看板一次最多取 90 天
const maxUsageRangeDays = 90

var (
	usageService *UsageService
	usageOnce    sync.Once
)

func Usage() *UsageService {
	usageOnce.Do(func() {
		usageService = &UsageService{}
	})
	return usageService
}

// UsageService 看板只读预聚合表，实时计数在 Redis 里等 scheduler 汇总
type UsageService struct{}

// ParseRange 解析看板的日期区间参数，缺省最近 7 天
func ParseRange(fromStr, toStr string) (from, to time.Time, err error) {
	now := time.Now().UTC().Truncate(24 * time.Hour)

	to = now
	if toStr != "" {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, errors.UsageRangeInvalid
		}
	}

	from = to.AddDate(0, 0, -6)
	if fromStr != "" {
		from, err = time.Parse("2006-01-02", fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, errors.UsageRangeInvalid
		}
	}

	if from.After(to) || to.Sub(from) > maxUsageRangeDays*24*time.Hour {
		return time.Time{}, time.Time{}, errors.UsageRangeInvalid
	}

	return from, to, nil
}

// APIUsage 某租户在区间内的接口用量
func (s *UsageService) APIUsage(ctx context.Context, tenantID int64, from, to time.Time) (*dto.APIUsageData, error) {
	var rows []model.APIUsageStat
	err := database.DB().WithContext(ctx).
		Where("tenant_id = ? AND day >= ? AND day <= ?", tenantID, from, to).
		Order("day ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query api usage: %w", err)
	}

	data := &dto.APIUsageData{Points: []dto.APIUsagePoint{}}
	for _, row := range rows {
		data.Points = append(data.Points, dto.APIUsagePoint{
			Day:          row.Day.Format("2006-01-02"),
			RouteClass:   row.RouteClass,
			RequestCount: row.RequestCount,
			ErrorCount:   row.ErrorCount,
		})
	}
	return data, nil
}

// CacheUsage 区间内的缓存命中情况（全局，不分租户）
func (s *UsageService) CacheUsage(ctx context.Context, from, to time.Time) (*dto.CacheUsageData, error) {
	var rows []model.CacheUsageStat
	err := database.DB().WithContext(ctx).
		Where("day >= ? AND day <= ?", from, to).
		Order("day ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query cache usage: %w", err)
	}

	data := &dto.CacheUsageData{Points: []dto.CacheUsagePoint{}}
	for _, row := range rows {
		point := dto.CacheUsagePoint{
			Day:    row.Day.Format("2006-01-02"),
			Cache:  row.Cache,
			Hits:   row.Hits,
			Misses: row.Misses,
		}
		if total := row.Hits + row.Misses; total > 0 {
			point.HitRate = float64(row.Hits) / float64(total)
		}
		data.Points = append(data.Points, point)
	}
	return data, nil
}

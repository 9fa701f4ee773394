package model

import "time"

// APIUsageStat 接口用量日聚合，调度器从 Redis 计数器滚动落库
// 看板只读这张表，不做实时计算
type APIUsageStat struct {
	BaseModel
	Day          time.Time `gorm:"type:date;not null;uniqueIndex:idx_api_usage_day_tenant_route,priority:1" json:"day"`
	TenantID     int64     `gorm:"not null;uniqueIndex:idx_api_usage_day_tenant_route,priority:2" json:"tenant_id"`
	RouteClass   string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_api_usage_day_tenant_route,priority:3" json:"route_class"` // onboarding, credits, usage, auth
	RequestCount int64     `gorm:"not null;default:0" json:"request_count"`
	ErrorCount   int64     `gorm:"not null;default:0" json:"error_count"`
}

// TableName 指定表名
func (APIUsageStat) TableName() string {
	return "api_usage_stats"
}

// CacheUsageStat 缓存命中率日聚合
type CacheUsageStat struct {
	BaseModel
	Day    time.Time `gorm:"type:date;not null;uniqueIndex:idx_cache_usage_day_cache,priority:1" json:"day"`
	Cache  string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_cache_usage_day_cache,priority:2" json:"cache"` // draft, protected
	Hits   int64     `gorm:"not null;default:0" json:"hits"`
	Misses int64     `gorm:"not null;default:0" json:"misses"`
}

// TableName 指定表名
func (CacheUsageStat) TableName() string {
	return "cache_usage_stats"
}

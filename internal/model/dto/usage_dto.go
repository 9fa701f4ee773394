package dto

// ========== Usage 相关 DTO ==========

// APIUsagePoint 接口用量单日数据点，直接喂给前端图表
type APIUsagePoint struct {
	Day          string `json:"day"` // YYYY-MM-DD
	RouteClass   string `json:"route_class"`
	RequestCount int64  `json:"request_count"`
	ErrorCount   int64  `json:"error_count"`
}

// APIUsageData 接口用量看板数据
type APIUsageData struct {
	Points []APIUsagePoint `json:"points"`
}

// CacheUsagePoint 缓存命中单日数据点
type CacheUsagePoint struct {
	Day     string  `json:"day"`
	Cache   string  `json:"cache"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// CacheUsageData 缓存看板数据
type CacheUsageData struct {
	Points []CacheUsagePoint `json:"points"`
}

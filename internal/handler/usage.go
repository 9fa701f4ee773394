package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"CreditDesk/internal/service"
	"CreditDesk/pkg/response"
)

// GetAPIUsage 接口用量看板数据
// GET /v1/usage/api?from=YYYY-MM-DD&to=YYYY-MM-DD
func GetAPIUsage(ctx context.Context, c *app.RequestContext) {
	tenant, ok := requireTenant(ctx, c)
	if !ok {
		return
	}

	from, to, err := service.ParseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	data, err := service.Usage().APIUsage(ctx, tenant.ID, from, to)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}

// GetCacheUsage 缓存命中看板数据
// GET /v1/usage/cache?from=YYYY-MM-DD&to=YYYY-MM-DD
func GetCacheUsage(ctx context.Context, c *app.RequestContext) {
	if _, ok := requireTenant(ctx, c); !ok {
		return
	}

	from, to, err := service.ParseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	data, err := service.Usage().CacheUsage(ctx, from, to)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}

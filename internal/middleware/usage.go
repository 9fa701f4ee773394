package middleware

import (
	"context"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"

	"CreditDesk/internal/cache"
)

// routeClass 把路径归入看板的几个大类
func routeClass(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/onboarding"):
		return "onboarding"
	case strings.HasPrefix(path, "/v1/credits"):
		return "credits"
	case strings.HasPrefix(path, "/v1/usage"):
		return "usage"
	case strings.HasPrefix(path, "/v1/auth"):
		return "auth"
	default:
		return "other"
	}
}

// UsageCounterMiddleware 按租户累计接口调用计数，供用量看板汇总
// 计数失败无声跳过，统计不能影响请求链路
func UsageCounterMiddleware(resolveTenant func(ctx context.Context, email string) (int64, bool)) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		c.Next(ctx)

		email, ok := GetUserEmail(ctx, c)
		if !ok {
			return
		}

		tenantID, ok := resolveTenant(ctx, email)
		if !ok {
			return
		}

		isError := c.Response.StatusCode() >= 500
		cache.IncrAPIRequest(ctx,
			strconv.FormatInt(tenantID, 10),
			routeClass(string(c.Path())),
			isError,
		)
	}
}

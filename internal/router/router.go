package router

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"CreditDesk/internal/handler"
	"CreditDesk/internal/middleware"
	"CreditDesk/internal/service"
)

func Register(h *server.Hertz) {

	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())
	//h.Use(middleware.CSRFMiddleware()) csrf 中间件，纯 Bearer 头认证用不上
	h.Use(middleware.OpenTelemetryMiddleware())

	h.GET("/healthz", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusOK, map[string]string{"status": "ok"})
	})

	v1 := h.Group("/v1")

	// 认证相关路由
	auth := v1.Group("/auth")
	{
		auth.POST("/token/exchange", middleware.TokenExchangeRateLimitMiddleware(), handler.ExchangeToken)
		auth.POST("/token/refresh", handler.RefreshToken)

		// 未登录也能访问，守卫轮询需要明确的未认证状态
		auth.GET("/session", middleware.OptionalAuthMiddleware(), handler.GetSession)

		auth.POST("/logout", middleware.AuthMiddleware(), handler.Logout)
	}

	usageCounter := middleware.UsageCounterMiddleware(resolveTenantID)

	// 引导向导路由
	onboarding := v1.Group("/onboarding")
	onboarding.Use(middleware.AuthMiddleware(), usageCounter)
	{
		onboarding.POST("/onboard", middleware.OnboardingSubmitRateLimitMiddleware(), handler.SubmitOnboarding)

		onboarding.PUT("/progress", middleware.ProgressSaveRateLimitMiddleware(), handler.UpdateProgress)
		onboarding.GET("/progress", handler.GetProgress)
		onboarding.DELETE("/progress", handler.ClearProgress)

		onboarding.GET("/logs", handler.GetDiagnosticLogs)
		onboarding.DELETE("/logs", handler.ClearDiagnosticLogs)
	}

	// 额度控制台路由
	credits := v1.Group("/credits")
	credits.Use(middleware.AuthMiddleware(), middleware.GeneralRateLimitMiddleware(), usageCounter)
	{
		credits.GET("/balance", handler.GetCreditBalance)
		credits.GET("/history", handler.GetCreditHistory)
		credits.GET("/notifications/dismissed", handler.GetDismissedNotifications)
		credits.POST("/notifications/dismissed", handler.DismissNotification)
	}

	// 用量看板路由
	usage := v1.Group("/usage")
	usage.Use(middleware.AuthMiddleware(), middleware.GeneralRateLimitMiddleware(), usageCounter)
	{
		usage.GET("/api", handler.GetAPIUsage)
		usage.GET("/cache", handler.GetCacheUsage)
	}
}

// resolveTenantID 用量计数按租户归档，未建档用户不计
func resolveTenantID(ctx context.Context, email string) (int64, bool) {
	tenant, err := service.Onboarding().FindByEmail(ctx, email)
	if err != nil || tenant == nil {
		return 0, false
	}
	return tenant.ID, true
}

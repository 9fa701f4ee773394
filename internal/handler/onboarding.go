package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"CreditDesk/config"
	"CreditDesk/internal/middleware"
	"CreditDesk/internal/model/dto"
	"CreditDesk/internal/service"
	"CreditDesk/pkg/errors"
	"CreditDesk/pkg/response"
	"CreditDesk/pkg/ringlog"
)

// 诊断日志环由 server 启动时注入（生产为 Redis 实现）
var diagSink ringlog.Sink = ringlog.Nop{}

// SetDiagnosticSink 注入诊断日志落点
func SetDiagnosticSink(s ringlog.Sink) {
	diagSink = s
}

// SubmitOnboarding 引导向导最终提交
// POST /v1/onboarding/onboard
func SubmitOnboarding(ctx context.Context, c *app.RequestContext) {
	email, ok := middleware.GetUserEmail(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return
	}

	var req dto.SubmitOnboardingRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	data, err := service.Onboarding().Submit(ctx, email, req)
	if err != nil {
		if err == errors.TenantAlreadyExists {
			// 409 带跳转地址，前端直接送去控制台而不是死胡同
			response.ErrorWithDetails(ctx, c, err, map[string]interface{}{
				"already_onboarded": true,
				"redirect_url":      config.Cfg.OnboardingRedirectURL,
			})
			return
		}
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}

// GetProgress 读取当前用户的草稿进度
// GET /v1/onboarding/progress
func GetProgress(ctx context.Context, c *app.RequestContext) {
	email, ok := middleware.GetUserEmail(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return
	}

	data, err := service.Progress().Get(ctx, email)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}

// UpdateProgress 保存草稿进度快照
// PUT /v1/onboarding/progress
func UpdateProgress(ctx context.Context, c *app.RequestContext) {
	email, ok := middleware.GetUserEmail(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return
	}

	var req dto.UpdateProgressRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	if err := service.Progress().Upsert(ctx, email, req); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.NoContent(ctx, c)
}

// ClearProgress 删除草稿进度
// DELETE /v1/onboarding/progress
func ClearProgress(ctx context.Context, c *app.RequestContext) {
	email, ok := middleware.GetUserEmail(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return
	}

	if err := service.Progress().Clear(ctx, email); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.NoContent(ctx, c)
}

// GetDiagnosticLogs 读取诊断日志环
// GET /v1/onboarding/logs
func GetDiagnosticLogs(ctx context.Context, c *app.RequestContext) {
	entries, err := diagSink.GetAll(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, dto.DiagnosticLogData{Entries: entries})
}

// ClearDiagnosticLogs 清空诊断日志环
// DELETE /v1/onboarding/logs
func ClearDiagnosticLogs(ctx context.Context, c *app.RequestContext) {
	if err := diagSink.Clear(ctx); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.NoContent(ctx, c)
}

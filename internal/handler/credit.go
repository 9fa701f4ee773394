package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"CreditDesk/internal/middleware"
	"CreditDesk/internal/model"
	"CreditDesk/internal/model/dto"
	"CreditDesk/internal/service"
	"CreditDesk/pkg/errors"
	"CreditDesk/pkg/response"
)

// requireTenant 解析已认证用户对应的租户，未建档返回 404
func requireTenant(ctx context.Context, c *app.RequestContext) (*model.Tenant, bool) {
	email, ok := middleware.GetUserEmail(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return nil, false
	}

	tenant, err := service.Onboarding().FindByEmail(ctx, email)
	if err != nil {
		response.Error(ctx, c, err)
		return nil, false
	}
	if tenant == nil {
		response.Error(ctx, c, errors.TenantNotFound)
		return nil, false
	}

	return tenant, true
}

// GetCreditBalance 查询余额
// GET /v1/credits/balance
func GetCreditBalance(ctx context.Context, c *app.RequestContext) {
	tenant, ok := requireTenant(ctx, c)
	if !ok {
		return
	}

	data, err := service.Credit().Balance(ctx, tenant.ID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}

// GetCreditHistory 查询流水，游标分页
// GET /v1/credits/history?cursor=
func GetCreditHistory(ctx context.Context, c *app.RequestContext) {
	tenant, ok := requireTenant(ctx, c)
	if !ok {
		return
	}

	cursor := c.Query("cursor")
	data, err := service.Credit().History(ctx, tenant.ID, cursor)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}

// GetDismissedNotifications 查询已关闭的余额提醒
// GET /v1/credits/notifications/dismissed
func GetDismissedNotifications(ctx context.Context, c *app.RequestContext) {
	tenant, ok := requireTenant(ctx, c)
	if !ok {
		return
	}

	data, err := service.Credit().DismissedNotifications(ctx, tenant.ID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}

// DismissNotification 关闭一条余额提醒
// POST /v1/credits/notifications/dismissed
func DismissNotification(ctx context.Context, c *app.RequestContext) {
	tenant, ok := requireTenant(ctx, c)
	if !ok {
		return
	}

	var req dto.DismissNotificationRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	if err := service.Credit().DismissNotification(ctx, tenant.ID, req.NotificationID); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.NoContent(ctx, c)
}

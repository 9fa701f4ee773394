package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"CreditDesk/internal/middleware"
	"CreditDesk/internal/model/dto"
	"CreditDesk/internal/service"
	"CreditDesk/pkg/errors"
	"CreditDesk/pkg/response"
)

// ExchangeToken 用 IdP 断言换取令牌对
// POST /v1/auth/token/exchange
func ExchangeToken(ctx context.Context, c *app.RequestContext) {
	var req dto.TokenExchangeRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	data, err := service.Auth().Exchange(ctx, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}

// RefreshToken 刷新令牌对
// POST /v1/auth/token/refresh
func RefreshToken(ctx context.Context, c *app.RequestContext) {
	var req dto.RefreshTokenRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	data, err := service.Auth().Refresh(ctx, req.RefreshToken)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}

// GetSession 会话状态，前端路由守卫轮询
// GET /v1/auth/session
func GetSession(ctx context.Context, c *app.RequestContext) {
	email, ok := middleware.GetUserEmail(ctx, c)
	if !ok {
		// 未登录不是错误，守卫需要明确的未认证状态
		response.Success(ctx, c, &dto.SessionData{Authenticated: false})
		return
	}

	data, err := service.Auth().Session(ctx, email)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}

// Logout 退出登录，吊销 refresh token
// POST /v1/auth/logout
func Logout(ctx context.Context, c *app.RequestContext) {
	email, ok := middleware.GetUserEmail(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return
	}

	if err := service.Auth().Logout(ctx, email); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.NoContent(ctx, c)
}

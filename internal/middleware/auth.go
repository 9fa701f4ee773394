package middleware

import (
	"context"
	"fmt"

	"CreditDesk/pkg/token"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/jwt"
)

const (
	IdentityKey = token.IdentityKey
)

var (
	authMiddleware *jwt.HertzJWTMiddleware
)

func initAuthMiddleware() error {
	// 使用 token 包中共享的生成器
	sharedGenerator := token.GetGenerator()
	if sharedGenerator == nil {
		return fmt.Errorf("token generator not initialized, call token.Init() first")
	}

	// 基于共享生成器创建 middleware，但需要添加 HTTP 相关的配置
	authMiddleware = &jwt.HertzJWTMiddleware{
		Realm:       "CreditDesk API",
		Key:         sharedGenerator.Key,
		Timeout:     sharedGenerator.Timeout,
		MaxRefresh:  sharedGenerator.MaxRefresh,
		IdentityKey: sharedGenerator.IdentityKey,
		TimeFunc:    sharedGenerator.TimeFunc,

		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			claims := jwt.ExtractClaims(ctx, c)
			email, ok := claims[IdentityKey].(string)
			if !ok {
				return nil
			}
			return email
		},

		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			c.JSON(code, map[string]interface{}{
				"error": map[string]interface{}{
					"code":    "UNAUTHORIZED",
					"message": message,
				},
			})
		},

		TokenLookup:   "header: Authorization, query: token, cookie: jwt",
		TokenHeadName: "Bearer",
	}

	return nil
}

func AuthMiddleware() app.HandlerFunc {
	if authMiddleware == nil {
		panic("AuthMiddleware not initialized, call Init() first")
	}
	return authMiddleware.MiddlewareFunc()
}

// OptionalAuthMiddleware 尝试解析身份但从不拦截
// 会话状态接口未登录也要能访问，返回明确的"未认证"而不是 401
func OptionalAuthMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if authMiddleware == nil {
			c.Next(ctx)
			return
		}

		claims, err := authMiddleware.GetClaimsFromJWT(ctx, c)
		if err == nil {
			if exp, ok := claims["exp"].(float64); ok && int64(exp) > authMiddleware.TimeFunc().Unix() {
				if email, ok := claims[IdentityKey].(string); ok && email != "" {
					c.Set(IdentityKey, email)
				}
			}
		}

		c.Next(ctx)
	}
}

// GetUserEmail 从请求上下文中获取已认证用户的邮箱
func GetUserEmail(ctx context.Context, c *app.RequestContext) (string, bool) {
	identity, exists := c.Get(IdentityKey)
	if !exists {
		return "", false
	}

	email, ok := identity.(string)
	if !ok || email == "" {
		return "", false
	}

	return email, true
}



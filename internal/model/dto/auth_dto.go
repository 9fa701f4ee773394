package dto

// ========== Auth 相关 DTO ==========

// TokenExchangeRequest 用 IdP 断言换取本服务令牌对
type TokenExchangeRequest struct {
	Assertion string     `json:"assertion" binding:"required"` // IdP 签发的 JWT
	Device    DeviceInfo `json:"device"`
}

// DeviceInfo 设备信息
type DeviceInfo struct {
	Platform   string `json:"platform"`
	AppVersion string `json:"app_version"`
}

// TokenPairData 令牌对响应数据
type TokenPairData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// RefreshTokenRequest 刷新令牌请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// SessionData 会话状态数据，前端路由守卫轮询这个接口
type SessionData struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
	Onboarded     bool   `json:"onboarded"`
	TenantID      string `json:"tenant_id,omitempty"`
	CurrentStep   int    `json:"current_step,omitempty"` // 未完成引导时的续跑步骤
}

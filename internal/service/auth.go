package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"CreditDesk/internal/cache"
	"CreditDesk/internal/model"
	"CreditDesk/internal/model/dto"
	"CreditDesk/pkg/errors"
	"CreditDesk/pkg/logger"
	"CreditDesk/pkg/token"
	"CreditDesk/utils"
)

var (
	authService *AuthService
	authOnce    sync.Once
)

func Auth() *AuthService {
	authOnce.Do(func() {
		authService = &AuthService{}
	})
	return authService
}

// AuthService 身份协议本身委托给上游 IdP，这里只做断言换票和会话状态
type AuthService struct{}

// Exchange 用 IdP 断言换取本服务的令牌对
func (s *AuthService) Exchange(ctx context.Context, req dto.TokenExchangeRequest) (*dto.TokenPairData, error) {
	email, err := token.ValidateIdPAssertion(req.Assertion)
	if err != nil {
		logger.Logger.Warn("IdP assertion rejected",
			zap.String("platform", req.Device.Platform),
			zap.Error(err),
		)
		if stderrors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, errors.AssertionExpired
		}
		return nil, errors.AssertionInvalid
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if !utils.ValidateEmail(email) {
		return nil, errors.InvalidUserEmail
	}

	accessToken, refreshToken, expiresIn, err := token.GenerateTokenPair(email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token pair: %w", err)
	}

	// 存储 refresh token 到 Redis，丢失只影响续期不影响当前会话
	if err := cache.SetRefreshToken(ctx, email, refreshToken); err != nil {
		logger.Logger.Warn("Failed to store refresh token in Redis",
			zap.String("email", email),
			zap.Error(err),
		)
	}

	logger.Logger.Info("Token pair issued",
		zap.String("email", email),
		zap.String("platform", req.Device.Platform),
	)

	return &dto.TokenPairData{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

// Refresh 刷新令牌对，旧 refresh token 作废
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPairData, error) {
	email, err := token.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.RefreshTokenInvalid
	}

	if !cache.ValidateRefreshTokenExists(ctx, email, refreshToken) {
		return nil, errors.RefreshTokenRevoked
	}

	accessToken, newRefreshToken, expiresIn, err := token.GenerateTokenPair(email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token pair: %w", err)
	}

	if err := cache.SetRefreshToken(ctx, email, newRefreshToken); err != nil {
		logger.Logger.Warn("Failed to rotate refresh token in Redis",
			zap.String("email", email),
			zap.Error(err),
		)
	}

	return &dto.TokenPairData{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

// Session 前端路由守卫轮询的会话状态：登录了吗、建档了吗、续跑到哪一步
func (s *AuthService) Session(ctx context.Context, email string) (*dto.SessionData, error) {
	data := &dto.SessionData{
		Authenticated: true,
		Email:         email,
	}

	var tenant model.Tenant
	hit, err := cache.TenantProtectedCache.Get(ctx, email, &tenant)
	if err != nil || !hit {
		found, err := Onboarding().FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if found != nil {
			tenant = *found
			if err := cache.TenantProtectedCache.Set(ctx, email, tenant); err != nil {
				logger.Logger.Warn("Failed to cache tenant lookup", zap.Error(err))
			}
		} else {
			tenant = model.Tenant{}
		}
	}

	if tenant.PublicID != 0 {
		data.Onboarded = true
		data.TenantID = strconv.FormatInt(tenant.PublicID, 10)
		return data, nil
	}

	progress, err := Progress().Get(ctx, email)
	if err != nil {
		logger.Logger.Warn("Failed to load progress for session",
			zap.String("email", email),
			zap.Error(err),
		)
		data.CurrentStep = model.FirstStepNumber
		return data, nil
	}

	data.CurrentStep = progress.StepNumber
	return data, nil
}

// Logout 吊销 refresh token
func (s *AuthService) Logout(ctx context.Context, email string) error {
	return cache.DeleteRefreshToken(ctx, email)
}

package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"CreditDesk/config"
	"CreditDesk/internal/model"
	"CreditDesk/internal/model/dto"
	"CreditDesk/internal/queue"
	"CreditDesk/pkg/errors"
	"CreditDesk/pkg/logger"
	"CreditDesk/pkg/snowflake"
	"CreditDesk/storage/database"
	"CreditDesk/utils"
)

var (
	onboardingService *OnboardingService
	onboardingOnce    sync.Once
)

func Onboarding() *OnboardingService {
	onboardingOnce.Do(func() {
		onboardingService = &OnboardingService{}
	})
	return onboardingService
}

type OnboardingService struct{}

// Submit 引导向导最终提交：建租户、记默认授信、清草稿、发事件
// 重复邮箱返回 TenantAlreadyExists，handler 会带上跳转地址
func (s *OnboardingService) Submit(ctx context.Context, email string, req dto.SubmitOnboardingRequest) (*dto.SubmitOnboardingData, error) {
	if err := validateSubmission(email, &req); err != nil {
		return nil, err
	}

	publicID, err := snowflake.NextID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate tenant ID: %w", err)
	}

	now := time.Now()
	tenant := &model.Tenant{
		PublicID:        publicID,
		CompanyName:     strings.TrimSpace(req.CompanyName),
		ContactName:     strings.TrimSpace(req.ContactName),
		ContactEmail:    email,
		ContactPhone:    strings.TrimSpace(req.ContactPhone),
		Country:         normalizeCountry(req.Country),
		Currency:        defaultIfEmpty(req.Currency, "INR"),
		Locale:          defaultIfEmpty(req.Locale, "en-IN"),
		TaxID:           strings.TrimSpace(req.TaxID),
		GSTNumber:       strings.TrimSpace(req.GSTNumber),
		FlowType:        model.FlowType(defaultIfEmpty(req.FlowType, string(model.FlowTypeNewBusiness))),
		Status:          model.TenantStatusActive,
		TermsAcceptedAt: &now,
	}

	db := database.DB().WithContext(ctx)
	err = db.Transaction(func(tx *gorm.DB) error {
		var existing model.Tenant
		err := tx.Where("contact_email = ?", email).First(&existing).Error
		if err == nil {
			return errors.TenantAlreadyExists
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to query tenant: %w", err)
		}

		if err := tx.Create(tenant).Error; err != nil {
			return fmt.Errorf("failed to create tenant: %w", err)
		}

		// 默认授信和建档同事务落库，worker 消费事件时只兜底补发
		grant := &model.CreditTransaction{
			TenantID:        tenant.ID,
			TransactionType: model.TransactionTypeGrant,
			Reason:          model.CreditReasonInitialGrant,
			Amount:          config.Cfg.DefaultCreditGrant,
			BalanceAfter:    config.Cfg.DefaultCreditGrant,
			Note:            "welcome credit bundle",
		}
		if err := tx.Create(grant).Error; err != nil {
			return fmt.Errorf("failed to record initial credit grant: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Logger.Info("Tenant onboarded",
		zap.Int64("public_id", publicID),
		zap.String("email", email),
		zap.String("company", tenant.CompanyName),
		zap.String("flow_type", string(tenant.FlowType)),
	)

	// 草稿已经完成使命，清理失败不影响提交结果
	if err := Progress().AttachTenant(ctx, email, tenant.ID); err != nil {
		logger.Logger.Warn("Failed to attach tenant to progress record", zap.Error(err))
	}
	if err := Progress().Clear(ctx, email); err != nil {
		logger.Logger.Warn("Failed to clear draft after onboarding", zap.Error(err))
	}

	if err := queue.PublishTenantOnboarded(model.TenantOnboardedMessage{
		TenantID:    tenant.ID,
		PublicID:    publicID,
		Email:       email,
		CompanyName: tenant.CompanyName,
		FlowType:    tenant.FlowType,
		Timestamp:   now.Unix(),
	}); err != nil {
		logger.Logger.Error("Failed to publish tenant.onboarded event",
			zap.Int64("tenant_id", tenant.ID),
			zap.Error(err),
		)
	}

	return &dto.SubmitOnboardingData{
		TenantID:    fmt.Sprintf("%d", publicID),
		RedirectURL: config.Cfg.OnboardingRedirectURL,
	}, nil
}

// FindByEmail 按联系邮箱查租户，未建档返回 (nil, nil)
func (s *OnboardingService) FindByEmail(ctx context.Context, email string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := database.DB().WithContext(ctx).
		Where("contact_email = ?", email).
		First(&tenant).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &tenant, nil
}

func validateSubmission(email string, req *dto.SubmitOnboardingRequest) error {
	if !utils.ValidateEmail(email) {
		return errors.InvalidUserEmail
	}
	if req.ContactEmail != "" && !strings.EqualFold(strings.TrimSpace(req.ContactEmail), email) {
		// payload 里的邮箱必须和登录身份一致
		return errors.ValidationFailed
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		return errors.ValidationFailed
	}
	if !req.TermsAccepted {
		return errors.TermsNotAccepted
	}
	if req.FlowType != "" && !model.ValidFlowType(model.FlowType(req.FlowType)) {
		return errors.OnboardingFlowInvalid
	}

	for _, field := range []string{
		req.CompanyName, req.ContactName, req.ContactPhone,
		req.TaxID, req.GSTNumber,
	} {
		if utils.ContainsUnsafePattern(field) {
			return errors.UnsafeInputRejected
		}
	}

	return nil
}

func normalizeCountry(country string) string {
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		return config.Cfg.DraftDefaultCountry
	}
	return country
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

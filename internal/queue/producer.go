package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"CreditDesk/internal/model"
	"CreditDesk/pkg/logger"
	"CreditDesk/pkg/snowflake"
	"CreditDesk/storage/mq"
)

// PublishTenantOnboarded 发布建档完成事件
func PublishTenantOnboarded(msg model.TenantOnboardedMessage) error {
	if msg.MessageID == "" {
		id, err := snowflake.NextID()
		if err != nil {
			logger.Logger.Error("Failed to generate message ID",
				zap.Int64("tenant_id", msg.TenantID),
				zap.Error(err),
			)
			return fmt.Errorf("failed to generate message ID: %w", err)
		}
		msg.MessageID = fmt.Sprintf("tenant_onboarded_%d", id)
	}

	err := mq.PublishMessage(
		mq.ExchangeOnboarding,
		mq.RouteTenantOnboarded,
		msg,
	)
	if err != nil {
		logger.Logger.Error("Failed to publish tenant.onboarded event",
			zap.String("message_id", msg.MessageID),
			zap.Int64("tenant_id", msg.TenantID),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("Published tenant.onboarded event",
		zap.String("message_id", msg.MessageID),
		zap.Int64("tenant_id", msg.TenantID),
		zap.String("email", msg.Email),
	)

	return nil
}

// RepublishTenantOnboardedDelayed 邮件发送失败后延迟重投
// 走延迟交换机，同一条消息带着原 MessageID 回流
func RepublishTenantOnboardedDelayed(msg model.TenantOnboardedMessage, delay time.Duration) error {
	if delay > 24*time.Hour {
		return fmt.Errorf("delay %v exceeds 24 hours limit", delay)
	}

	err := mq.PublishDelayedMessage(
		mq.ExchangeDelayed,
		mq.RouteTenantOnboarded,
		delay,
		msg,
	)
	if err != nil {
		logger.Logger.Error("Failed to republish tenant.onboarded event",
			zap.String("message_id", msg.MessageID),
			zap.Int64("tenant_id", msg.TenantID),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("Republished tenant.onboarded event with delay",
		zap.String("message_id", msg.MessageID),
		zap.Int64("tenant_id", msg.TenantID),
		zap.Duration("delay", delay),
	)

	return nil
}

// PublishCreditLowWarning 发布余额不足提醒事件
func PublishCreditLowWarning(msg model.CreditLowWarningMessage) error {
	if msg.MessageID == "" {
		id, err := snowflake.NextID()
		if err != nil {
			return fmt.Errorf("failed to generate message ID: %w", err)
		}
		msg.MessageID = fmt.Sprintf("credit_low_%d", id)
	}
	if msg.NotificationID == "" {
		msg.NotificationID = uuid.NewString()
	}

	err := mq.PublishMessage(
		mq.ExchangeOnboarding,
		mq.RouteCreditLowWarning,
		msg,
	)
	if err != nil {
		logger.Logger.Error("Failed to publish credit.low_warning event",
			zap.String("message_id", msg.MessageID),
			zap.Int64("tenant_id", msg.TenantID),
			zap.Error(err),
		)
		return err
	}

	return nil
}

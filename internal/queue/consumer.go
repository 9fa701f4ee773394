package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"CreditDesk/config"
	"CreditDesk/internal/cache"
	"CreditDesk/internal/model"
	"CreditDesk/pkg/errors"
	"CreditDesk/pkg/logger"
	"CreditDesk/pkg/mail"
	"CreditDesk/pkg/metrics"
	"CreditDesk/storage/mq"
)

// maxWelcomeEmailRetries 欢迎邮件最多延迟重投次数
const maxWelcomeEmailRetries = 3

// CreditGranter 授信兜底，worker 启动时注入，避免 queue 和 service 互相依赖
type CreditGranter interface {
	EnsureInitialGrant(ctx context.Context, tenantID int64, amount int) error
}

var creditGranter CreditGranter

// SetCreditGranter 注入授信服务（在 worker 启动时调用）
func SetCreditGranter(g CreditGranter) {
	creditGranter = g
}

// StartTenantOnboardedConsumer 消费建档完成事件：兜底授信 + 欢迎邮件
func StartTenantOnboardedConsumer(ctx context.Context) error {
	handler := func(body []byte) error {
		var msg model.TenantOnboardedMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return &errors.SkipMessageError{Reason: fmt.Sprintf("malformed tenant.onboarded message: %v", err)}
		}

		acquired, err := cache.TryMarkMessageProcessing(ctx, msg.MessageID, 24*time.Hour)
		if err != nil {
			logger.Logger.Warn("Failed to check message processed status",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
			// 检查失败继续处理，授信本身是幂等的
		} else if !acquired {
			return &errors.SkipMessageError{Reason: fmt.Sprintf("message %s already processed", msg.MessageID)}
		}

		logger.Logger.Info("Processing tenant.onboarded event",
			zap.String("message_id", msg.MessageID),
			zap.Int64("tenant_id", msg.TenantID),
			zap.String("email", msg.Email),
		)

		if creditGranter != nil {
			if err := creditGranter.EnsureInitialGrant(ctx, msg.TenantID, config.Cfg.DefaultCreditGrant); err != nil {
				_ = cache.UnmarkMessageProcessing(ctx, msg.MessageID)
				return fmt.Errorf("failed to ensure initial credit grant: %w", err)
			}
		}

		sendStart := time.Now()
		if err := mail.SendWelcome(ctx, msg.Email, msg.CompanyName, config.Cfg.OnboardingRedirectURL); err != nil {
			if m := metrics.GetMetrics(); m != nil {
				m.RecordWelcomeEmailSent(ctx, "failed", time.Since(sendStart).Seconds())
			}
			logger.Logger.Warn("Failed to send welcome email",
				zap.String("message_id", msg.MessageID),
				zap.String("email", msg.Email),
				zap.Int("retries", msg.Retries),
				zap.Error(err),
			)

			if msg.Retries >= maxWelcomeEmailRetries {
				logger.Logger.Error("Giving up on welcome email after retries",
					zap.String("message_id", msg.MessageID),
					zap.String("email", msg.Email),
				)
				_ = cache.MarkMessageProcessed(ctx, msg.MessageID, 7*24*time.Hour)
				return nil
			}

			// 指数退避后延迟重投，授信已落库，重跑无副作用
			_ = cache.UnmarkMessageProcessing(ctx, msg.MessageID)
			msg.Retries++
			if m := metrics.GetMetrics(); m != nil {
				m.RecordWelcomeEmailRetry(ctx, msg.Retries)
			}
			delay := time.Minute << (msg.Retries - 1)
			if err := RepublishTenantOnboardedDelayed(msg, delay); err != nil {
				return fmt.Errorf("failed to republish for email retry: %w", err)
			}
			return nil
		}

		if m := metrics.GetMetrics(); m != nil {
			m.RecordWelcomeEmailSent(ctx, "success", time.Since(sendStart).Seconds())
		}

		if err := cache.MarkMessageProcessed(ctx, msg.MessageID, 7*24*time.Hour); err != nil {
			logger.Logger.Warn("Failed to mark message processed",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		}

		return nil
	}

	return mq.Consume(mq.ConsumeOptions{
		Queue:         mq.QueueTenantOnboarded,
		ConsumerTag:   "creditdesk-worker",
		PrefetchCount: 8,
		Handler:       handler,
	})
}

// StartCreditLowWarningConsumer 消费余额不足事件，给租户发提醒邮件
// 提醒是尽力而为的：发不出去只记日志，余额再次跨过阈值时还会有新事件
func StartCreditLowWarningConsumer(ctx context.Context) error {
	handler := func(body []byte) error {
		var msg model.CreditLowWarningMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return &errors.SkipMessageError{Reason: fmt.Sprintf("malformed credit.low_warning message: %v", err)}
		}

		acquired, err := cache.TryMarkMessageProcessing(ctx, msg.MessageID, 24*time.Hour)
		if err != nil {
			logger.Logger.Warn("Failed to check message processed status",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		} else if !acquired {
			return &errors.SkipMessageError{Reason: fmt.Sprintf("message %s already processed", msg.MessageID)}
		}

		if msg.Email == "" {
			logger.Logger.Warn("Low credit warning without contact email, console notification only",
				zap.String("message_id", msg.MessageID),
				zap.Int64("tenant_id", msg.TenantID),
			)
		} else if err := mail.SendLowCreditWarning(ctx, msg.Email, msg.CompanyName, msg.Balance); err != nil {
			logger.Logger.Warn("Failed to send low credit warning email",
				zap.String("message_id", msg.MessageID),
				zap.Int64("tenant_id", msg.TenantID),
				zap.Error(err),
			)
		} else {
			logger.Logger.Info("Low credit warning delivered",
				zap.String("message_id", msg.MessageID),
				zap.String("notification_id", msg.NotificationID),
				zap.Int64("tenant_id", msg.TenantID),
				zap.Int("balance", msg.Balance),
			)
		}

		if err := cache.MarkMessageProcessed(ctx, msg.MessageID, 7*24*time.Hour); err != nil {
			logger.Logger.Warn("Failed to mark message processed",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		}
		return nil
	}

	return mq.Consume(mq.ConsumeOptions{
		Queue:         mq.QueueCreditLowWarning,
		ConsumerTag:   "creditdesk-worker-credit",
		PrefetchCount: 8,
		Handler:       handler,
	})
}

// StartAllConsumers 启动全部消费者，断连后退避重连
func StartAllConsumers(ctx context.Context) {
	go func() {
		for {
			if err := StartTenantOnboardedConsumer(ctx); err != nil {
				logger.Logger.Error("tenant.onboarded consumer stopped",
					zap.Error(err),
				)
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
		}
	}()

	go func() {
		for {
			if err := StartCreditLowWarningConsumer(ctx); err != nil {
				logger.Logger.Error("credit.low_warning consumer stopped",
					zap.Error(err),
				)
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
		}
	}()
}

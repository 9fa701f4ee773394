package mail

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"CreditDesk/config"
	"CreditDesk/pkg/logger"
)

// Client 邮件客户端接口
type Client interface {
	// SendWelcome 给新建档的租户发送欢迎邮件
	SendWelcome(ctx context.Context, to, companyName, consoleURL string) error
	// SendLowCreditWarning 余额跌破阈值时提醒租户充值
	SendLowCreditWarning(ctx context.Context, to, companyName string, balance int) error
}

var (
	mailClient Client
	mailOnce   sync.Once
)

// Init 初始化邮件客户端
// 没有配置 API Key 时退化为 mock，邮件只写日志不外发
func Init() error {
	mailOnce.Do(func() {
		cfg := config.Cfg

		if cfg.ResendAPIKey == "" {
			mailClient = NewMockClient()
			logger.Logger.Warn("RESEND_API_KEY not set, using mock mail client")
			return
		}

		mailClient = NewResendClient(cfg.ResendAPIKey, cfg.MailFromAddress)
		logger.Logger.Info("Mail client initialized successfully",
			zap.String("provider", "resend"),
		)
	})

	return nil
}

func GetClient() Client {
	if mailClient == nil {
		panic("Mail client not initialized, call mail.Init() first")
	}
	return mailClient
}

func SendWelcome(ctx context.Context, to, companyName, consoleURL string) error {
	return GetClient().SendWelcome(ctx, to, companyName, consoleURL)
}

func SendLowCreditWarning(ctx context.Context, to, companyName string, balance int) error {
	return GetClient().SendLowCreditWarning(ctx, to, companyName, balance)
}

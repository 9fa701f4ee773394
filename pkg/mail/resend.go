package mail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"CreditDesk/pkg/logger"
)

// ResendClient 基于 Resend 的邮件客户端，实现 Client 接口
type ResendClient struct {
	client *resend.Client
	from   string
}

func NewResendClient(apiKey, from string) *ResendClient {
	return &ResendClient{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (c *ResendClient) SendWelcome(ctx context.Context, to, companyName, consoleURL string) error {
	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: "Welcome to CreditDesk",
		Html: fmt.Sprintf(`
			<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto; padding: 24px;">
				<h2 style="color: #333;">%s is ready on CreditDesk</h2>
				<p>Your workspace has been provisioned and your starter credits are in place.</p>
				<a href="%s" style="display: inline-block; background: #6366f1; color: white; padding: 12px 24px; border-radius: 8px; text-decoration: none; font-weight: 600;">
					Open the console
				</a>
				<p style="color: #aaa; font-size: 12px;">
					If you didn't create this account, you can safely ignore this email.
				</p>
			</div>
		`, companyName, consoleURL),
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	logger.Logger.Info("Welcome email sent",
		zap.String("to", to),
		zap.String("message_id", sent.Id),
	)

	return nil
}

func (c *ResendClient) SendLowCreditWarning(ctx context.Context, to, companyName string, balance int) error {
	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: "Your CreditDesk balance is running low",
		Html: fmt.Sprintf(`
			<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto; padding: 24px;">
				<h2 style="color: #333;">%s is down to %d credits</h2>
				<p>API requests will start failing once the balance hits zero. Top up from the billing console to keep things running.</p>
				<p style="color: #aaa; font-size: 12px;">
					You can dismiss this reminder in the console if you've already handled it.
				</p>
			</div>
		`, companyName, balance),
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send low credit warning: %w", err)
	}

	logger.Logger.Info("Low credit warning sent",
		zap.String("to", to),
		zap.String("message_id", sent.Id),
	)

	return nil
}

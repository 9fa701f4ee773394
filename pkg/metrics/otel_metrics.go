package metrics

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics OpenTelemetry 指标集合
type OTelMetrics struct {
	// 欢迎邮件相关指标
	WelcomeEmailSentTotal    metric.Int64Counter
	WelcomeEmailSendDuration metric.Float64Histogram
	WelcomeEmailRetryTotal   metric.Int64Counter

	// 额度流水相关指标
	CreditTransactionTotal  metric.Int64Counter
	CreditInsufficientTotal metric.Int64Counter

	// 草稿保存相关指标
	DraftSaveTotal metric.Int64Counter
}

var (
	// 全局指标实例
	metrics *OTelMetrics
	// meter 用于创建指标
	meter = otel.Meter("creditdesk")
)

// InitMetrics 初始化 OpenTelemetry 指标
func InitMetrics() error {
	var err error

	metrics = &OTelMetrics{}

	metrics.WelcomeEmailSentTotal, err = meter.Int64Counter(
		"welcome_email_sent_total",
		metric.WithDescription("Total number of welcome emails sent"),
		metric.WithUnit("{email}"),
	)
	if err != nil {
		return err
	}

	metrics.WelcomeEmailSendDuration, err = meter.Float64Histogram(
		"welcome_email_send_duration_seconds",
		metric.WithDescription("Time spent sending welcome emails in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	metrics.WelcomeEmailRetryTotal, err = meter.Int64Counter(
		"welcome_email_retry_total",
		metric.WithDescription("Total number of welcome email retry attempts"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return err
	}

	metrics.CreditTransactionTotal, err = meter.Int64Counter(
		"credit_transaction_total",
		metric.WithDescription("Total number of credit ledger transactions"),
		metric.WithUnit("{transaction}"),
	)
	if err != nil {
		return err
	}

	metrics.CreditInsufficientTotal, err = meter.Int64Counter(
		"credit_insufficient_total",
		metric.WithDescription("Total number of rejected deductions due to insufficient balance"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	metrics.DraftSaveTotal, err = meter.Int64Counter(
		"draft_save_total",
		metric.WithDescription("Total number of onboarding draft saves"),
		metric.WithUnit("{save}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// GetMetrics 获取全局指标实例，未初始化时返回 nil
func GetMetrics() *OTelMetrics {
	return metrics
}

// RecordWelcomeEmailSent 记录欢迎邮件发送结果
func (m *OTelMetrics) RecordWelcomeEmailSent(ctx context.Context, status string, duration float64) {
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.WelcomeEmailSentTotal.Add(ctx, 1, attrs)
	m.WelcomeEmailSendDuration.Record(ctx, duration, attrs)
}

// RecordWelcomeEmailRetry 记录欢迎邮件延迟重投
func (m *OTelMetrics) RecordWelcomeEmailRetry(ctx context.Context, attempt int) {
	m.WelcomeEmailRetryTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("attempt", strconv.Itoa(attempt)),
	))
}

// RecordCreditTransaction 记录一条额度流水
func (m *OTelMetrics) RecordCreditTransaction(ctx context.Context, txType, reason string) {
	m.CreditTransactionTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", txType),
		attribute.String("reason", reason),
	))
}

// RecordCreditInsufficient 记录余额不足被拒
func (m *OTelMetrics) RecordCreditInsufficient(ctx context.Context, reason string) {
	m.CreditInsufficientTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

// RecordDraftSave 记录草稿保存结果
func (m *OTelMetrics) RecordDraftSave(ctx context.Context, status string) {
	m.DraftSaveTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
}

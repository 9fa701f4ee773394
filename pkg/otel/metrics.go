package otel

import (
	"fmt"

	"go.opentelemetry.io/otel"

	dbotel "CreditDesk/pkg/database"
	"CreditDesk/pkg/metrics"
	mqotel "CreditDesk/pkg/mq"
	redisotel "CreditDesk/pkg/redis"
)

// InitStorageMetrics 注册存储层与业务指标
// 必须在首次访问数据库/Redis/MQ 之前调用，否则计数器还是 nil
func InitStorageMetrics(serviceName string) error {
	meter := otel.Meter(serviceName)

	if err := dbotel.InitDatabaseMetrics(meter); err != nil {
		return fmt.Errorf("failed to init database metrics: %w", err)
	}
	if err := redisotel.InitRedisMetrics(meter); err != nil {
		return fmt.Errorf("failed to init redis metrics: %w", err)
	}
	if err := mqotel.InitMQMetrics(meter); err != nil {
		return fmt.Errorf("failed to init mq metrics: %w", err)
	}
	if err := metrics.InitMetrics(); err != nil {
		return fmt.Errorf("failed to init domain metrics: %w", err)
	}

	return nil
}

package mq

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"CreditDesk/config"
)

// 交换机与队列拓扑
const (
	ExchangeOnboarding = "onboarding.events"  // 建档事件，topic
	ExchangeDelayed    = "scheduler.delayed"  // 延迟重试，需要 delayed-message 插件

	QueueTenantOnboarded = "onboarding.tenant_onboarded"
	RouteTenantOnboarded = "tenant.onboarded"

	QueueCreditLowWarning = "credit.low_warning_notify"
	RouteCreditLowWarning = "credit.low_warning"
)

var (
	conn     *amqp.Connection
	connOnce sync.Once
	connErr  error
)

func Init() error {
	connOnce.Do(func() {
		url := config.Cfg.GetRabbitMQURL()

		conn, connErr = amqp.Dial(url)
		if connErr != nil {
			return
		}

		ch, err := conn.Channel()
		if err != nil {
			connErr = err
			return
		}
		defer ch.Close()

		connErr = declareTopology(ch)
	})

	return connErr
}

func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeOnboarding, "topic", true, false, false, false, nil); err != nil {
		return err
	}

	// 延迟交换机由插件提供，类型在参数里声明
	if err := ch.ExchangeDeclare(ExchangeDelayed, "x-delayed-message", true, false, false, false, amqp.Table{
		"x-delayed-type": "topic",
	}); err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(QueueTenantOnboarded, true, false, false, false, nil); err != nil {
		return err
	}

	if err := ch.QueueBind(QueueTenantOnboarded, RouteTenantOnboarded, ExchangeOnboarding, false, nil); err != nil {
		return err
	}

	// 延迟重试也回流到同一个队列
	if err := ch.QueueBind(QueueTenantOnboarded, RouteTenantOnboarded, ExchangeDelayed, false, nil); err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(QueueCreditLowWarning, true, false, false, false, nil); err != nil {
		return err
	}

	return ch.QueueBind(QueueCreditLowWarning, RouteCreditLowWarning, ExchangeOnboarding, false, nil)
}

// Connection 获取共享连接，供消费者开独立 channel
func Connection() *amqp.Connection {
	return conn
}

func Close(ctx context.Context) error {
	if conn == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// 服务配置
	ServerPort  string `env:"SERVER_PORT" envDefault:"8890"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"creditdesk"`

	// PostgreSQL 配置
	PostgreSQLHost     string `env:"POSTGRESQL_HOST" envDefault:"localhost"`
	PostgreSQLPort     string `env:"POSTGRESQL_PORT" envDefault:"5432"`
	PostgreSQLUser     string `env:"POSTGRESQL_USER" envDefault:"postgres"`
	PostgreSQLPassword string `env:"POSTGRESQL_PASSWORD" envDefault:"postgres"`
	PostgreSQLDatabase string `env:"POSTGRESQL_DATABASE" envDefault:"creditdesk"`
	PostgreSQLSchema   string `env:"POSTGRESQL_SCHEMA" envDefault:"public"`
	PostgreSQLSSLMode  string `env:"POSTGRESQL_SSLMODE" envDefault:"disable"`
	PostgreSQLMaxIdle  int    `env:"POSTGRESQL_MAX_IDLE" envDefault:"30"`
	PostgreSQLMaxOpen  int    `env:"POSTGRESQL_MAX_OPEN" envDefault:"200"`

	// Redis 配置
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"cdsk"`

	// RabbitMQ 配置
	RabbitMQAddr     string `env:"RABBITMQ_ADDR" envDefault:"localhost"`
	RabbitMQPort     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUsername string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQVhost    string `env:"RABBITMQ_VHOST" envDefault:"/"`

	// JWT 配置
	JWTSecret        string `env:"JWT_SECRET"` // 必填，用于签名 JWT
	JWTExpireMinutes int    `env:"JWT_EXPIRE_MINUTES" envDefault:"30"`
	JWTRefreshDays   int    `env:"JWT_REFRESH_DAYS" envDefault:"7"`

	// 身份提供商配置
	// 上游 IdP 签发的断言只在这里做签名和有效期校验，协议细节由 IdP 负责
	IdPIssuer       string `env:"IDP_ISSUER" envDefault:"https://idp.creditdesk.io"`
	IdPSharedSecret string `env:"IDP_SHARED_SECRET"`

	// 会话 / CSRF 配置
	SessionSecret string `env:"SESSION_SECRET" envDefault:"creditdesk-session"`
	CSRFSecret    string `env:"CSRF_SECRET" envDefault:"creditdesk-csrf"`

	// 邮件服务配置（Resend）
	ResendAPIKey    string `env:"RESEND_API_KEY"`
	MailFromAddress string `env:"MAIL_FROM_ADDRESS" envDefault:"CreditDesk <welcome@creditdesk.io>"`

	// 加密配置
	EncryptionKey string `env:"ENCRYPTION_KEY"` // 用于草稿本地缓存的加密，32字节 AES-256

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// 诊断日志环形缓冲区配置
	DiagnosticLogMaxEntries int `env:"DIAGNOSTIC_LOG_MAX_ENTRIES" envDefault:"200"`
	DiagnosticLogMaxBytes   int `env:"DIAGNOSTIC_LOG_MAX_BYTES" envDefault:"65536"`

	// OpenTelemetry 配置
	OTLPEndpoint string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
	SampleRatio  float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"0.1"`

	// 速率限制配置, 配置在中间件内
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     int  `env:"RATE_LIMIT_RPS" envDefault:"100"` // 每秒请求数

	// 草稿持久化配置
	DraftRetentionDays  int    `env:"DRAFT_RETENTION_DAYS" envDefault:"30"`  // 过期草稿清理
	DraftDefaultCountry string `env:"DRAFT_DEFAULT_COUNTRY" envDefault:"IN"` // 规范化默认国家码

	// 额度配置
	DefaultCreditGrant int `env:"DEFAULT_CREDIT_GRANT" envDefault:"500"` // 新租户默认授信额度

	// 引导流程配置
	OnboardingRedirectURL string `env:"ONBOARDING_REDIRECT_URL" envDefault:"/console/dashboard"`

	// 用量统计配置
	UsageRollupIntervalMinutes int `env:"USAGE_ROLLUP_INTERVAL_MINUTES" envDefault:"5"` // 计数器落库周期
}

func init() {

	if err := godotenv.Load(); err != nil {

		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	Cfg = Config{}
	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}
}

// MustValidate 进程入口调用，缺少必填配置直接退出
// 校验不放在 init 里，测试进程可以自己填 Cfg 再用
func MustValidate() {
	if Cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	if Cfg.EncryptionKey == "" {
		log.Fatal("ENCRYPTION_KEY is required (32 bytes for AES-256)")
	}

	if len(Cfg.EncryptionKey) != 32 {
		log.Fatal("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}

	if Cfg.IdPSharedSecret == "" {
		log.Printf("WARN: IDP_SHARED_SECRET is not set, token exchange will not work")
	}

	if Cfg.ResendAPIKey == "" {
		log.Printf("WARN: RESEND_API_KEY is not set, welcome emails will not be sent")
	}
}

func (c *Config) GetDSN() string {
	return "host=" + c.PostgreSQLHost +
		" port=" + c.PostgreSQLPort +
		" user=" + c.PostgreSQLUser +
		" password=" + c.PostgreSQLPassword +
		" dbname=" + c.PostgreSQLDatabase +
		" sslmode=" + c.PostgreSQLSSLMode +
		" search_path=" + c.PostgreSQLSchema
}

func (c *Config) GetRabbitMQURL() string {
	return "amqp://" + c.RabbitMQUsername + ":" + c.RabbitMQPassword + "@" + c.RabbitMQAddr + ":" + c.RabbitMQPort + c.RabbitMQVhost
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

package repository

import (
	"fmt"
	"os"

	"gorm.io/gen"

	"CreditDesk/internal/model"
	"CreditDesk/storage/database"
)

// ========== Tenant 相关查询接口 ==========

// TenantQuerier 租户查询接口
type TenantQuerier interface {
	// GetByPublicID 根据 PublicID 查询租户（API 中 tenantID 是 public_id）
	//
	// SELECT * FROM @@table WHERE public_id = @publicID LIMIT 1
	GetByPublicID(publicID int64) (*gen.T, error)

	// GetByContactEmail 根据联系邮箱查询租户
	//
	// SELECT * FROM @@table WHERE contact_email = @email LIMIT 1
	GetByContactEmail(email string) (*gen.T, error)

	// ListByStatus 根据状态查询租户列表
	//
	// SELECT * FROM @@table
	// WHERE status = @status
	// ORDER BY created_at DESC
	// LIMIT @limit OFFSET @offset
	ListByStatus(status string, limit, offset int) ([]*gen.T, error)

	// CountByStatus 统计各状态的租户数量
	//
	// SELECT status, COUNT(*) as count
	// FROM @@table
	// GROUP BY status
	CountByStatus() ([]gen.M, error)
}

// ========== OnboardingProgress 相关查询接口 ==========

// OnboardingProgressQuerier 开通进度查询接口
type OnboardingProgressQuerier interface {
	// GetByUserEmail 根据用户邮箱查询草稿
	//
	// SELECT * FROM @@table WHERE user_email = @email LIMIT 1
	GetByUserEmail(email string) (*gen.T, error)

	// ListStaleDrafts 查询超过保留期的草稿（用于定时清理）
	//
	// SELECT * FROM @@table
	// WHERE saved_at < @cutoff
	// ORDER BY saved_at ASC
	// LIMIT @limit
	ListStaleDrafts(cutoff string, limit int) ([]*gen.T, error)

	// CountByStep 统计各步骤停留的草稿数量（漏斗分析）
	//
	// SELECT current_step, COUNT(*) as count
	// FROM @@table
	// GROUP BY current_step
	CountByStep() ([]gen.M, error)
}

// ========== CreditTransaction 相关查询接口 ==========

// CreditTransactionQuerier 额度流水查询接口
type CreditTransactionQuerier interface {
	// GetLatestByTenantID 获取租户最新一条流水（余额就在 balance_after 上）
	//
	// SELECT * FROM @@table
	// WHERE tenant_id = @tenantID
	// ORDER BY id DESC
	// LIMIT 1
	GetLatestByTenantID(tenantID int64) (*gen.T, error)

	// ListByTenantID 按租户查询流水（游标分页）
	//
	// SELECT * FROM @@table
	// WHERE tenant_id = @tenantID
	//   {{if cursorID > 0}}
	//   AND id < @cursorID
	//   {{end}}
	// ORDER BY id DESC
	// LIMIT @limit
	ListByTenantID(tenantID int64, cursorID int64, limit int) ([]*gen.T, error)

	// CountByTenantIDAndReason 按原因统计租户流水条数（幂等检查用）
	//
	// SELECT COUNT(*) as count
	// FROM @@table
	// WHERE tenant_id = @tenantID AND reason = @reason
	CountByTenantIDAndReason(tenantID int64, reason string) (int64, error)

	// SumByTenantIDAndType 按类型汇总租户流水金额
	//
	// SELECT COALESCE(SUM(amount), 0) as total
	// FROM @@table
	// WHERE tenant_id = @tenantID AND transaction_type = @txType
	SumByTenantIDAndType(tenantID int64, txType string) (int64, error)
}

// ========== 用量统计相关查询接口 ==========

// APIUsageStatQuerier API 用量统计查询接口
type APIUsageStatQuerier interface {
	// ListByTenantIDAndDayRange 按租户和日期范围查询用量
	//
	// SELECT * FROM @@table
	// WHERE tenant_id = @tenantID
	//   AND day >= @fromDay AND day <= @toDay
	// ORDER BY day ASC, route_class ASC
	ListByTenantIDAndDayRange(tenantID int64, fromDay, toDay string) ([]*gen.T, error)

	// SumByTenantIDAndDayRange 汇总租户在日期范围内的请求总量
	//
	// SELECT
	//   COALESCE(SUM(request_count), 0) as requests,
	//   COALESCE(SUM(error_count), 0) as errors
	// FROM @@table
	// WHERE tenant_id = @tenantID
	//   AND day >= @fromDay AND day <= @toDay
	SumByTenantIDAndDayRange(tenantID int64, fromDay, toDay string) (gen.M, error)
}

// CacheUsageStatQuerier 缓存用量统计查询接口
type CacheUsageStatQuerier interface {
	// ListByDayRange 按日期范围查询缓存命中统计
	//
	// SELECT * FROM @@table
	// WHERE day >= @fromDay AND day <= @toDay
	// ORDER BY day ASC, cache ASC
	ListByDayRange(fromDay, toDay string) ([]*gen.T, error)
}

func Generate() error {
	if err := database.Init(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// 运行数据库迁移（确保表存在）
	if err := database.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migration: %w", err)
	}

	db := database.DB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:           "./internal/repository/query", // 生成代码的输出路径
		ModelPkgPath:      "CreditDesk/internal/model",
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface | gen.WithoutContext,
		FieldNullable:     true, // 字段可以为 null
		FieldCoverable:    false,
		FieldSignable:     false,
		FieldWithIndexTag: false,
		FieldWithTypeTag:  true,
	})

	g.UseDB(db)

	// 注册现有的 model，GORM Gen 会使用这些 model 而不是生成新的
	g.ApplyBasic(
		&model.Tenant{},
		&model.OnboardingProgress{},
		&model.CreditTransaction{},
		&model.APIUsageStat{},
		&model.CacheUsageStat{},
	)

	g.ApplyInterface(func(TenantQuerier) {}, &model.Tenant{})
	g.ApplyInterface(func(OnboardingProgressQuerier) {}, &model.OnboardingProgress{})
	g.ApplyInterface(func(CreditTransactionQuerier) {}, &model.CreditTransaction{})
	g.ApplyInterface(func(APIUsageStatQuerier) {}, &model.APIUsageStat{})
	g.ApplyInterface(func(CacheUsageStatQuerier) {}, &model.CacheUsageStat{})

	g.Execute()

	return nil
}

func RunGenerate() {
	if err := Generate(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate code: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Code generation completed successfully!")
}

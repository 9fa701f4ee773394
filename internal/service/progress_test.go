package service

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"CreditDesk/config"
	"CreditDesk/internal/model"
	"CreditDesk/internal/model/dto"
	"CreditDesk/pkg/logger"
	otelpkg "CreditDesk/pkg/otel"
	"CreditDesk/storage/database"
	"CreditDesk/storage/redis"
)

var testRedis *miniredis.Miniredis

func TestMain(m *testing.M) {
	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	testRedis = mr

	config.Cfg.EncryptionKey = "0123456789abcdef0123456789abcdef"
	config.Cfg.RedisAddr = mr.Addr()

	logger.Init()
	if err := otelpkg.InitStorageMetrics("creditdesk-test"); err != nil {
		panic(err)
	}
	if err := redis.Init(); err != nil {
		panic(err)
	}

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic(err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	// AutoMigrate 的 DDL 默认值是 postgres 方言的，sqlite 下直接建表
	err = gdb.Exec(`CREATE TABLE onboarding_progress (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME,
		user_email TEXT NOT NULL UNIQUE,
		tenant_id INTEGER,
		flow_type TEXT NOT NULL DEFAULT 'new_business',
		current_step TEXT NOT NULL,
		snapshot TEXT,
		saved_at DATETIME NOT NULL
	)`).Error
	if err != nil {
		panic(err)
	}
	database.SetForTest(gdb)

	code := m.Run()
	mr.Close()
	os.Exit(code)
}

func saveRequest(step string) dto.UpdateProgressRequest {
	return dto.UpdateProgressRequest{
		CurrentStep: step,
		FlowType:    string(model.FlowTypeNewBusiness),
		Snapshot: map[string]interface{}{
			"businessDetails": map[string]interface{}{
				"companyName": "Acme Traders",
				"country":     "IN",
			},
		},
	}
}

func TestUpsertThenGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	email := "roundtrip@example.com"

	require.NoError(t, Progress().Upsert(ctx, email, saveRequest(model.StepBusinessDetails)))

	// 缓存清空后必须能从权威存储完整读回
	testRedis.FlushAll()

	data, err := Progress().Get(ctx, email)
	require.NoError(t, err)
	require.True(t, data.Found)
	require.Equal(t, model.StepBusinessDetails, data.CurrentStep)
	require.Equal(t, "Acme Traders", data.Snapshot["businessDetails"].(map[string]interface{})["companyName"])
}

func TestUpsertAfterClearRevivesRecord(t *testing.T) {
	ctx := context.Background()
	email := "restart@example.com"

	require.NoError(t, Progress().Upsert(ctx, email, saveRequest(model.StepTaxDetails)))
	require.NoError(t, Progress().Clear(ctx, email))

	// 用户重新开始填写：Clear 留下的软删除行必须被新保存复活
	require.NoError(t, Progress().Upsert(ctx, email, saveRequest(model.StepBusinessDetails)))

	testRedis.FlushAll()

	data, err := Progress().Get(ctx, email)
	require.NoError(t, err)
	require.True(t, data.Found, "draft saved after a reset must be recoverable from the database")
	require.Equal(t, model.StepBusinessDetails, data.CurrentStep)
}

func TestGetAfterClearReturnsFirstStep(t *testing.T) {
	ctx := context.Background()
	email := "cleared@example.com"

	require.NoError(t, Progress().Upsert(ctx, email, saveRequest(model.StepReview)))
	require.NoError(t, Progress().Clear(ctx, email))

	testRedis.FlushAll()

	data, err := Progress().Get(ctx, email)
	require.NoError(t, err)
	require.False(t, data.Found)
	require.Equal(t, model.FirstStepNumber, data.StepNumber)
}

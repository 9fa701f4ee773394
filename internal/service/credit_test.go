package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"CreditDesk/pkg/errors"
	"CreditDesk/storage/database"
)

func setupCreditTable(t *testing.T) {
	t.Helper()
	err := database.DB().Exec(`CREATE TABLE IF NOT EXISTS credit_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME,
		tenant_id INTEGER NOT NULL,
		transaction_type TEXT NOT NULL,
		reason TEXT NOT NULL,
		amount INTEGER NOT NULL,
		balance_after INTEGER NOT NULL,
		note TEXT
	)`).Error
	require.NoError(t, err)
}

func TestGrantDeductLedgerArithmetic(t *testing.T) {
	setupCreditTable(t)
	ctx := context.Background()
	tenantID := int64(9001)

	require.NoError(t, Credit().Grant(ctx, tenantID, 500, "initial_grant", "welcome credit bundle"))
	require.NoError(t, Credit().Deduct(ctx, tenantID, 120, "api_usage", "metered usage"))

	testRedis.FlushAll()

	data, err := Credit().Balance(ctx, tenantID)
	require.NoError(t, err)
	require.Equal(t, 380, data.Balance)
	require.False(t, data.LowCredit)
}

func TestDeductInsufficientRejected(t *testing.T) {
	setupCreditTable(t)
	ctx := context.Background()
	tenantID := int64(9002)

	require.NoError(t, Credit().Grant(ctx, tenantID, 30, "initial_grant", ""))

	err := Credit().Deduct(ctx, tenantID, 100, "api_usage", "")
	require.Equal(t, errors.CreditInsufficient, err)

	// 被拒的扣减不能留下流水
	testRedis.FlushAll()
	data, err := Credit().Balance(ctx, tenantID)
	require.NoError(t, err)
	require.Equal(t, 30, data.Balance)
	require.True(t, data.LowCredit)
}

func TestDeductAmountMustBePositive(t *testing.T) {
	setupCreditTable(t)
	ctx := context.Background()

	require.Equal(t, errors.CreditAmountInvalid, Credit().Deduct(ctx, int64(9003), 0, "api_usage", ""))
	require.Equal(t, errors.CreditAmountInvalid, Credit().Grant(ctx, int64(9003), -5, "adjustment", ""))
}

package model

// TransactionType 交易类型枚举
type TransactionType string

const (
	TransactionTypeGrant  TransactionType = "grant"  // 充值
	TransactionTypeDeduct TransactionType = "deduct" // 扣减
)

// 交易原因标识，写入流水用于审计
const (
	CreditReasonInitialGrant = "initial_grant" // 新租户默认授信
	CreditReasonAPIUsage     = "api_usage"     // 接口调用消耗
	CreditReasonAdjustment   = "adjustment"    // 人工调整
	CreditReasonRefund       = "refund"        // 退回
)

// CreditTransaction 额度流水模型
// 只追加不修改，余额以最新一条的 balance_after 为准
type CreditTransaction struct {
	BaseModel
	TenantID        int64           `gorm:"not null;index:idx_credit_transactions_tenant" json:"tenant_id"`
	TransactionType TransactionType `gorm:"type:varchar(16);not null" json:"transaction_type"`
	Reason          string          `gorm:"type:varchar(32);not null" json:"reason"`
	Amount          int             `gorm:"not null" json:"amount"`
	BalanceAfter    int             `gorm:"not null" json:"balance_after"`
	Note            string          `gorm:"type:varchar(255)" json:"note,omitempty"`
}

// TableName 指定表名
func (CreditTransaction) TableName() string {
	return "credit_transactions"
}

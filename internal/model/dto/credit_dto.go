package dto

import "time"

// ========== Credit 相关 DTO ==========

// CreditBalanceData 余额数据
type CreditBalanceData struct {
	Balance   int       `json:"balance"`
	AsOf      time.Time `json:"as_of"`
	LowCredit bool      `json:"low_credit"`
}

// CreditTransactionDTO 流水条目
type CreditTransactionDTO struct {
	ID              string    `json:"id"`
	TransactionType string    `json:"transaction_type"`
	Reason          string    `json:"reason"`
	Amount          int       `json:"amount"`
	BalanceAfter    int       `json:"balance_after"`
	Note            string    `json:"note,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreditHistoryData 流水分页数据，游标取最后一条的 ID
type CreditHistoryData struct {
	Transactions []CreditTransactionDTO `json:"transactions"`
	NextCursor   string                 `json:"next_cursor,omitempty"`
}

// DismissNotificationRequest 关闭额度提醒请求
type DismissNotificationRequest struct {
	NotificationID string `json:"notification_id" binding:"required"`
}

// DismissedNotificationsData 已关闭的额度提醒
type DismissedNotificationsData struct {
	NotificationIDs []string `json:"notification_ids"`
}

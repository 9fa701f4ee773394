package model

// TenantOnboardedMessage 租户建档完成事件，worker 消费后补发授信和欢迎邮件
type TenantOnboardedMessage struct {
	MessageID   string   `json:"message_id"`
	TenantID    int64    `json:"tenant_id"`
	PublicID    int64    `json:"public_id"`
	Email       string   `json:"email"`
	CompanyName string   `json:"company_name"`
	FlowType    FlowType `json:"flow_type"`
	Timestamp   int64    `json:"timestamp"`
	Retries     int      `json:"retries,omitempty"` // 欢迎邮件的延迟重投次数
}

// CreditLowWarningMessage 余额不足提醒事件，worker 消费后给租户发提醒邮件
// NotificationID 会出现在控制台提醒里，用户关闭提醒时以它为准
// Email/CompanyName 在发布侧填好，消费者不用再回查租户表
type CreditLowWarningMessage struct {
	MessageID      string `json:"message_id"`
	NotificationID string `json:"notification_id"`
	TenantID       int64  `json:"tenant_id"`
	Email          string `json:"email,omitempty"`
	CompanyName    string `json:"company_name,omitempty"`
	Balance        int    `json:"balance"`
	Timestamp      int64  `json:"timestamp"`
}

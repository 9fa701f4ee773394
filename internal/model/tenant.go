package model

import "time"

// TenantStatus 租户状态枚举
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

// FlowType 引导流程类型，两条路径的字段集不同
type FlowType string

const (
	FlowTypeNewBusiness      FlowType = "new_business"
	FlowTypeExistingBusiness FlowType = "existing_business"
)

// ValidFlowType 校验流程类型取值
func ValidFlowType(ft FlowType) bool {
	return ft == FlowTypeNewBusiness || ft == FlowTypeExistingBusiness
}

// Tenant 租户（组织）模型，引导流程成功提交后创建
type Tenant struct {
	BaseModel
	PublicID        int64        `gorm:"uniqueIndex;not null" json:"public_id"`
	CompanyName     string       `gorm:"type:varchar(255);not null" json:"company_name"`
	ContactName     string       `gorm:"type:varchar(128)" json:"contact_name"`
	ContactEmail    string       `gorm:"type:varchar(255);uniqueIndex;not null" json:"contact_email"`
	ContactPhone    string       `gorm:"type:varchar(32)" json:"contact_phone"`
	Country         string       `gorm:"type:varchar(8);not null;default:'IN'" json:"country"`
	Currency        string       `gorm:"type:varchar(8);not null;default:'INR'" json:"currency"`
	Locale          string       `gorm:"type:varchar(16);not null;default:'en-IN'" json:"locale"`
	TaxID           string       `gorm:"type:varchar(64)" json:"tax_id"`
	GSTNumber       string       `gorm:"type:varchar(64)" json:"gst_number"`
	FlowType        FlowType     `gorm:"type:varchar(32);not null" json:"flow_type"`
	Status          TenantStatus `gorm:"type:varchar(16);not null;default:'active'" json:"status"`
	TermsAcceptedAt *time.Time   `json:"terms_accepted_at,omitempty"`
}

// TableName 指定表名
func (Tenant) TableName() string {
	return "tenants"
}

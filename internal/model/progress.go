package model

import (
	"time"

	"gorm.io/datatypes"
)

// 引导向导的步骤标识，顺序即向导页面顺序
const (
	StepPersonalDetails = "personal_details"
	StepBusinessDetails = "business_details"
	StepTaxDetails      = "tax_details"
	StepTeamMembers     = "team_members"
	StepReview          = "review"
)

// FirstStepNumber 向导从第 1 步开始，恢复失败时也回到这里
const FirstStepNumber = 1

// StepNumber 将步骤标识映射为步骤序号，未知标识按第 1 步处理
func StepNumber(stepID string) int {
	switch stepID {
	case StepPersonalDetails:
		return 1
	case StepBusinessDetails:
		return 2
	case StepTaxDetails:
		return 3
	case StepTeamMembers:
		return 4
	case StepReview:
		return 5
	default:
		return FirstStepNumber
	}
}

// OnboardingProgress 引导进度记录，远端为唯一权威数据源
// 每个用户邮箱最多一行，快照为任意嵌套的 JSON 树
type OnboardingProgress struct {
	BaseModel
	UserEmail   string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"user_email"`
	TenantID    *int64         `gorm:"index" json:"tenant_id,omitempty"` // 租户建档后回填
	FlowType    FlowType       `gorm:"type:varchar(32);not null;default:'new_business'" json:"flow_type"`
	CurrentStep string         `gorm:"type:varchar(64);not null" json:"current_step"`
	Snapshot    datatypes.JSON `gorm:"type:jsonb" json:"snapshot"`
	SavedAt     time.Time      `gorm:"not null" json:"saved_at"`
}

// TableName 指定表名
func (OnboardingProgress) TableName() string {
	return "onboarding_progress"
}

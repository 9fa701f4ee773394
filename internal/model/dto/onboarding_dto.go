package dto

import "time"

// ========== Onboarding 相关 DTO ==========

// SubmitOnboardingRequest 引导向导最终提交请求
// 前端会把向导各步骤的字段拍平成一个大 payload
type SubmitOnboardingRequest struct {
	CompanyName   string `json:"company_name" binding:"required"`
	ContactName   string `json:"contact_name"`
	ContactEmail  string `json:"contact_email" binding:"required"`
	ContactPhone  string `json:"contact_phone"`
	Country       string `json:"country"`
	Currency      string `json:"currency"`
	Locale        string `json:"locale"`
	TaxID         string `json:"tax_id"`
	GSTNumber     string `json:"gst_number"`
	FlowType      string `json:"flow_type"`
	TermsAccepted bool   `json:"terms_accepted"`
}

// SubmitOnboardingData 提交成功响应数据
type SubmitOnboardingData struct {
	TenantID         string `json:"tenant_id"`
	RedirectURL      string `json:"redirect_url,omitempty"`
	AlreadyOnboarded bool   `json:"already_onboarded,omitempty"`
}

// UpdateProgressRequest 保存进度快照请求
type UpdateProgressRequest struct {
	CurrentStep string                 `json:"current_step" binding:"required"`
	FlowType    string                 `json:"flow_type"`
	Snapshot    map[string]interface{} `json:"snapshot"`
}

// ProgressData 进度快照响应数据
type ProgressData struct {
	CurrentStep string                 `json:"current_step"`
	StepNumber  int                    `json:"step_number"`
	FlowType    string                 `json:"flow_type"`
	Snapshot    map[string]interface{} `json:"snapshot"`
	SavedAt     time.Time              `json:"saved_at"`
	Found       bool                   `json:"found"`
}

// DiagnosticLogData 诊断日志响应数据
type DiagnosticLogData struct {
	Entries []string `json:"entries"`
}

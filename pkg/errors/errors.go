package errors

import "errors"

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// 认证相关错误。
var (
	Unauthorized        = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	AssertionInvalid    = Definition{Code: "ASSERTION_INVALID", Message: "Identity assertion invalid"}
	AssertionExpired    = Definition{Code: "ASSERTION_EXPIRED", Message: "Identity assertion expired"}
	RefreshTokenInvalid = Definition{Code: "REFRESH_TOKEN_INVALID", Message: "Refresh token invalid"}
	RefreshTokenRevoked = Definition{Code: "REFRESH_TOKEN_REVOKED", Message: "Refresh token revoked"}
	InvalidUserEmail    = Definition{Code: "INVALID_USER_EMAIL", Message: "Invalid user email"}
)

// 引导流程错误。
var (
	OnboardingStepInvalid  = Definition{Code: "ONBOARDING_STEP_INVALID", Message: "Onboarding step invalid"}
	OnboardingFlowInvalid  = Definition{Code: "ONBOARDING_FLOW_INVALID", Message: "Onboarding flow type invalid"}
	TenantAlreadyExists    = Definition{Code: "TENANT_ALREADY_EXISTS", Message: "An account with this email already exists"}
	TermsNotAccepted       = Definition{Code: "TERMS_NOT_ACCEPTED", Message: "Terms of service must be accepted"}
	ValidationFailed       = Definition{Code: "VALIDATION_FAILED", Message: "Request validation failed"}
	UnsafeInputRejected    = Definition{Code: "UNSAFE_INPUT_REJECTED", Message: "Input contains disallowed patterns"}
	ProgressSnapshotTooBig = Definition{Code: "PROGRESS_SNAPSHOT_TOO_BIG", Message: "Progress snapshot exceeds size limit"}
)

// 额度模块错误。
var (
	CreditInsufficient  = Definition{Code: "CREDIT_INSUFFICIENT", Message: "Credit balance insufficient"}
	CreditAmountInvalid = Definition{Code: "CREDIT_AMOUNT_INVALID", Message: "Credit amount must be positive"}
	TenantNotFound      = Definition{Code: "TENANT_NOT_FOUND", Message: "Tenant not found"}
)

// 用量看板错误。
var (
	UsageRangeInvalid = Definition{Code: "USAGE_RANGE_INVALID", Message: "Usage date range invalid"}

	// 限流
	TooManyRequests = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	Unauthorized.Code:           Unauthorized,
	AssertionInvalid.Code:       AssertionInvalid,
	AssertionExpired.Code:       AssertionExpired,
	RefreshTokenInvalid.Code:    RefreshTokenInvalid,
	RefreshTokenRevoked.Code:    RefreshTokenRevoked,
	InvalidUserEmail.Code:       InvalidUserEmail,
	OnboardingStepInvalid.Code:  OnboardingStepInvalid,
	OnboardingFlowInvalid.Code:  OnboardingFlowInvalid,
	TenantAlreadyExists.Code:    TenantAlreadyExists,
	TermsNotAccepted.Code:       TermsNotAccepted,
	ValidationFailed.Code:       ValidationFailed,
	UnsafeInputRejected.Code:    UnsafeInputRejected,
	ProgressSnapshotTooBig.Code: ProgressSnapshotTooBig,
	CreditInsufficient.Code:     CreditInsufficient,
	CreditAmountInvalid.Code:    CreditAmountInvalid,
	TenantNotFound.Code:         TenantNotFound,
	UsageRangeInvalid.Code:      UsageRangeInvalid,
	TooManyRequests.Code:        TooManyRequests,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

// token 包使用的哨兵错误。
var (
	ErrTokenGeneratorNotInitialized = errors.New("token generator not initialized")
	ErrUnexpectedSigningMethod      = errors.New("unexpected signing method")
	ErrInvalidToken                 = errors.New("invalid token")
	ErrInvalidTokenClaims           = errors.New("invalid token claims")
	ErrInvalidTokenType             = errors.New("invalid token type")
	ErrUserEmailNotFound            = errors.New("user email not found in claims")
	ErrDatabaseConnectionNil        = errors.New("database connection is nil")
)

// SkipMessageError 消费者据此直接 Ack 而非重回队列（重复消息、无法修复的脏消息）。
type SkipMessageError struct {
	Reason string
}

func (e *SkipMessageError) Error() string {
	return "skip message: " + e.Reason
}

package utils

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func ValidateEmail(email string) bool {
	if len(email) > 255 {
		return false
	}
	return emailPattern.MatchString(email)
}

// 提交前的安全模式拦截，命中即整体拒绝
var unsafePatterns = []string{
	"<script",
	"javascript:",
	"onerror=",
	"onload=",
}

// ContainsUnsafePattern 检查自由文本字段是否携带脚本注入痕迹
func ContainsUnsafePattern(value string) bool {
	lowered := strings.ToLower(value)
	for _, p := range unsafePatterns {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}

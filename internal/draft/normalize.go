package draft

import "strings"

// 旧版草稿把企业字段平铺在顶层，现行表单 schema 要求嵌套在 businessDetails 下
// 恢复时在这里做一次迁移，让老草稿继续可用

// defaultCountry 国家码缺省值
const defaultCountry = "IN"

// legacyBusinessFields 需要从顶层提升到 businessDetails 的字段
var legacyBusinessFields = []string{
	"companyName",
	"businessType",
	"country",
	"currency",
	"gstNumber",
	"taxId",
	"website",
}

// Normalize 纯函数：优先级 嵌套值 > 平铺旧值 > 缺省
// 国家码统一大写，缺失时补 "IN"；其余缺失字段保持缺失
func Normalize(snapshot map[string]interface{}) map[string]interface{} {
	if snapshot == nil {
		snapshot = map[string]interface{}{}
	}

	out := Clone(snapshot)

	details, _ := out["businessDetails"].(map[string]interface{})
	if details == nil {
		details = map[string]interface{}{}
	}

	for _, field := range legacyBusinessFields {
		if _, ok := details[field]; ok {
			continue
		}
		if legacy, ok := out[field]; ok {
			details[field] = legacy
		}
	}

	if country, ok := details["country"].(string); ok && country != "" {
		details["country"] = strings.ToUpper(country)
	} else {
		details["country"] = defaultCountry
	}

	out["businessDetails"] = details
	return out
}

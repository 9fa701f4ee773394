package draft

// Clone 深拷贝一棵 JSON 风格的表单快照树
// 空字符串和 nil 叶子必须原样保留，结构共享在这里是不可接受的：
// 调用方拿到克隆后会继续改原表单
func Clone(src map[string]interface{}) map[string]interface{} {
	if src == nil {
		return nil
	}

	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
	return dst
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return Clone(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		// 基本类型按值拷贝，nil 保持 nil
		return val
	}
}

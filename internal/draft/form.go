package draft

import (
	"strings"
	"sync"
)

// Form 表单的最小抽象：协调器只需要读全量、按路径写、整体重置
type Form interface {
	Values() map[string]interface{}
	Set(path string, value interface{})
	Reset()
}

// MapForm 基于嵌套 map 的 Form 实现
// 路径用点号分隔（"businessDetails.companyName"），中间层按需创建
type MapForm struct {
	mu     sync.Mutex
	values map[string]interface{}
}

func NewMapForm() *MapForm {
	return &MapForm{values: map[string]interface{}{}}
}

func (f *MapForm) Values() map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Clone(f.values)
}

func (f *MapForm) Set(path string, value interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.Split(path, ".")
	node := f.values
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]interface{})
		if !ok {
			child = map[string]interface{}{}
			node[part] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = value
}

func (f *MapForm) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = map[string]interface{}{}
}

package ringlog

import (
	"context"
	"unicode/utf8"
)

// Sink 诊断日志落点抽象
// 引导向导的草稿协调器往这里追加诊断条目，测试中换成内存实现
type Sink interface {
	Append(ctx context.Context, entry string) error
	GetAll(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}

// Nop 丢弃所有条目的空实现
type Nop struct{}

func (Nop) Append(ctx context.Context, entry string) error { return nil }

func (Nop) GetAll(ctx context.Context) ([]string, error) { return nil, nil }

func (Nop) Clear(ctx context.Context) error { return nil }

// truncate 按字节上限截断条目，回退到 rune 边界避免切出半个多字节字符
func truncate(entry string, max int) string {
	if max <= 0 || len(entry) <= max {
		return entry
	}
	for max > 0 && !utf8.RuneStart(entry[max]) {
		max--
	}
	return entry[:max]
}

package ringlog

import (
	"context"
	"sync"
)

// MemorySink 内存环形缓冲区实现
// 同时按条数和总字节数封顶：超限时丢弃最旧的条目，而不是拒绝新条目
type MemorySink struct {
	mu         sync.Mutex
	entries    []string
	totalBytes int
	maxEntries int
	maxBytes   int
}

// NewMemorySink 创建内存 Sink，maxEntries/maxBytes <= 0 时使用默认上限
func NewMemorySink(maxEntries, maxBytes int) *MemorySink {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	if maxBytes <= 0 {
		maxBytes = 64 * 1024
	}
	return &MemorySink{
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
	}
}

func (s *MemorySink) Append(ctx context.Context, entry string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 单条超过总预算时截断，保证缓冲区永远能接收新条目
	entry = truncate(entry, s.maxBytes)

	s.entries = append(s.entries, entry)
	s.totalBytes += len(entry)

	for len(s.entries) > s.maxEntries || s.totalBytes > s.maxBytes {
		s.totalBytes -= len(s.entries[0])
		s.entries = s.entries[1:]
	}

	return nil
}

func (s *MemorySink) GetAll(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *MemorySink) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.totalBytes = 0
	return nil
}

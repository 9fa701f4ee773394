package draft

import (
	"context"
	"sync"
	"time"
)

// Record 一份远端保存的草稿进度
type Record struct {
	CurrentStep string                 `json:"current_step"`
	StepNumber  int                    `json:"step_number"`
	FlowType    string                 `json:"flow_type"`
	Snapshot    map[string]interface{} `json:"snapshot"`
	SavedAt     time.Time              `json:"saved_at"`
}

// Store 远端进度存储
// GetByEmail 未命中时返回 (nil, nil)，错误只代表存取本身失败
type Store interface {
	UpdateStep(ctx context.Context, email, stepID, flowType string, snapshot map[string]interface{}) error
	GetByEmail(ctx context.Context, email string) (*Record, error)
}

// MemoryStore 进程内实现，供测试和离线场景使用
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record

	// UpdateCalls / GetCalls 记录调用次数，方便断言去抖行为
	UpdateCalls int
	GetCalls    int

	// FailNext 置位后下一次操作返回该错误并自动清零
	FailNext error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) UpdateStep(ctx context.Context, email, stepID, flowType string, snapshot map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.UpdateCalls++
	if err := s.takeFailure(); err != nil {
		return err
	}

	s.records[email] = &Record{
		CurrentStep: stepID,
		FlowType:    flowType,
		Snapshot:    Clone(snapshot),
		SavedAt:     time.Now(),
	}
	return nil
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.GetCalls++
	if err := s.takeFailure(); err != nil {
		return nil, err
	}

	rec, ok := s.records[email]
	if !ok {
		return nil, nil
	}

	copied := *rec
	copied.Snapshot = Clone(rec.Snapshot)
	return &copied, nil
}

func (s *MemoryStore) takeFailure() error {
	err := s.FailNext
	s.FailNext = nil
	return err
}

package mail

import (
	"context"
	"sync"
)

// MockCall 记录一次发送请求的参数
type MockCall struct {
	Kind        string // welcome / low_credit
	To          string
	CompanyName string
	ConsoleURL  string
	Balance     int
}

// MockClient 不外发邮件，只记录调用，本地开发和无 Key 环境用
type MockClient struct {
	mu    sync.Mutex
	Calls []MockCall
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) SendWelcome(ctx context.Context, to, companyName, consoleURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Kind: "welcome", To: to, CompanyName: companyName, ConsoleURL: consoleURL})
	return nil
}

func (m *MockClient) SendLowCreditWarning(ctx context.Context, to, companyName string, balance int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Kind: "low_credit", To: to, CompanyName: companyName, Balance: balance})
	return nil
}

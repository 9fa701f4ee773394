package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// RemoteStore 走 HTTP 访问进度接口的 Store 实现
// 服务端按 token 里的身份鉴权，email 参数只用于一致性校验
type RemoteStore struct {
	baseURL string
	cli     *client.Client

	// TokenProvider 每次请求取一次 access token
	tokenProvider func() string
}

func NewRemoteStore(baseURL string, tokenProvider func() string) (*RemoteStore, error) {
	cli, err := client.NewClient(
		client.WithClientReadTimeout(10 * time.Second),
	)
	if err != nil {
		return nil, err
	}

	return &RemoteStore{
		baseURL:       baseURL,
		cli:           cli,
		tokenProvider: tokenProvider,
	}, nil
}

type updateStepBody struct {
	CurrentStep string                 `json:"current_step"`
	FlowType    string                 `json:"flow_type"`
	Snapshot    map[string]interface{} `json:"snapshot"`
}

type progressEnvelope struct {
	Data struct {
		CurrentStep string                 `json:"current_step"`
		StepNumber  int                    `json:"step_number"`
		FlowType    string                 `json:"flow_type"`
		Snapshot    map[string]interface{} `json:"snapshot"`
		SavedAt     time.Time              `json:"saved_at"`
		Found       bool                   `json:"found"`
	} `json:"data"`
}

func (s *RemoteStore) UpdateStep(ctx context.Context, email, stepID, flowType string, snapshot map[string]interface{}) error {
	body, err := json.Marshal(updateStepBody{
		CurrentStep: stepID,
		FlowType:    flowType,
		Snapshot:    snapshot,
	})
	if err != nil {
		return fmt.Errorf("marshal progress payload: %w", err)
	}

	req, res := protocol.AcquireRequest(), protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(res)
	}()

	req.SetMethod(consts.MethodPut)
	req.SetRequestURI(s.baseURL + "/v1/onboarding/progress")
	req.SetBody(body)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	s.authorize(req)

	if err := s.cli.Do(ctx, req, res); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		return fmt.Errorf("update progress: unexpected status %d", res.StatusCode())
	}
	return nil
}

func (s *RemoteStore) GetByEmail(ctx context.Context, email string) (*Record, error) {
	req, res := protocol.AcquireRequest(), protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(res)
	}()

	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(s.baseURL + "/v1/onboarding/progress")
	s.authorize(req)

	if err := s.cli.Do(ctx, req, res); err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		return nil, fmt.Errorf("get progress: unexpected status %d", res.StatusCode())
	}

	var envelope progressEnvelope
	if err := json.Unmarshal(res.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("decode progress response: %w", err)
	}

	if !envelope.Data.Found {
		return nil, nil
	}

	return &Record{
		CurrentStep: envelope.Data.CurrentStep,
		StepNumber:  envelope.Data.StepNumber,
		FlowType:    envelope.Data.FlowType,
		Snapshot:    envelope.Data.Snapshot,
		SavedAt:     envelope.Data.SavedAt,
	}, nil
}

func (s *RemoteStore) authorize(req *protocol.Request) {
	if s.tokenProvider == nil {
		return
	}
	if token := s.tokenProvider(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

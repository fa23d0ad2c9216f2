package service_test

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/endrithotii/daskann/common/llm"
	"github.com/endrithotii/daskann/internal/model"
	"github.com/endrithotii/daskann/internal/service"
)

type mockAnalyzer struct {
	analyzeFn func(ctx context.Context, question string, responses []string) (*model.ConsensusAnalysis, error)
	calls     atomic.Int32
}

func (m *mockAnalyzer) Analyze(ctx context.Context, question string, responses []string) (*model.ConsensusAnalysis, error) {
	m.calls.Add(1)
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, question, responses)
	}
	return nil, &service.ExternalServiceError{Service: "consensus_analysis", Err: service.ErrNotConfigured}
}

type mockModerator struct {
	moderateFn func(ctx context.Context, question, answer string) (service.ModerationDecision, error)
	calls      int
}

func (m *mockModerator) Moderate(ctx context.Context, question, answer string) (service.ModerationDecision, error) {
	m.calls++
	if m.moderateFn != nil {
		return m.moderateFn(ctx, question, answer)
	}
	return service.ModerationDecision{Permitted: true}, nil
}

type mockPublisher struct {
	mu        sync.Mutex
	publishFn func(ctx context.Context, notifications []model.Notification) error
	published []model.Notification
}

func (m *mockPublisher) Publish(ctx context.Context, notifications []model.Notification) error {
	m.mu.Lock()
	m.published = append(m.published, notifications...)
	m.mu.Unlock()
	if m.publishFn != nil {
		return m.publishFn(ctx, notifications)
	}
	return nil
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

type mockLLMClient struct {
	chatFn   func(ctx context.Context, req llm.Request, result any) (*llm.Response, error)
	calls    int
	requests []llm.Request
}

func (m *mockLLMClient) Chat(ctx context.Context, req llm.Request, result any) (*llm.Response, error) {
	m.calls++
	m.requests = append(m.requests, req)
	if m.chatFn != nil {
		return m.chatFn(ctx, req, result)
	}
	return &llm.Response{}, nil
}

func (m *mockLLMClient) Model() string {
	return "mock"
}

// replyWith makes a chatFn that decodes body into the caller's result.
func replyWith(body string) func(context.Context, llm.Request, any) (*llm.Response, error) {
	return func(_ context.Context, _ llm.Request, result any) (*llm.Response, error) {
		if err := json.Unmarshal([]byte(body), result); err != nil {
			return nil, err
		}
		return &llm.Response{PromptTokens: 10, CompletionTokens: 20}, nil
	}
}

func sushiPizzaAnalysis() *model.ConsensusAnalysis {
	return &model.ConsensusAnalysis{
		Question: "Where should we eat?",
		Groups: []model.ConsensusGroup{
			{ID: "g1", Label: "Sushi", Criteria: "Japanese food", Members: []int{1, 3}, Count: 2},
			{ID: "g2", Label: "Pizza", Criteria: "Italian food", Members: []int{2}, Count: 1},
		},
		Consensus: model.ConsensusRecord{GroupID: "g1", Label: "Sushi", Confidence: 0.67, Reasoning: "Two of three participants chose sushi"},
	}
}

package llm

import (
	"context"
	"sync"
)

// MockClient is a scripted Client for tests.
//
// Responses are returned in order; when they run out, the last one
// repeats. Set Err to fail every call, or CompleteFunc to take full
// control. MockClient records the prompts it received.
type MockClient struct {
	mu sync.Mutex

	// Responses are returned as flat-content completions, in order.
	Responses []string
	// Err, when non-nil, is returned by every call.
	Err error
	// CompleteFunc overrides all other behavior when set.
	CompleteFunc func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	calls   int
	prompts []string
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if len(req.Messages) > 0 {
		m.prompts = append(m.prompts, req.Messages[len(req.Messages)-1].Content)
	}

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return &CompletionResponse{FinishReason: "stop"}, nil
	}

	i := m.calls - 1
	if i >= len(m.Responses) {
		i = len(m.Responses) - 1
	}
	return &CompletionResponse{Content: m.Responses[i], FinishReason: "stop"}, nil
}

// Calls returns how many times Complete was invoked.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Prompts returns the user prompts received, in order.
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

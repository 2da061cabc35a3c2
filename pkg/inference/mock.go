package inference

import (
	"context"
	"sync"
)

// MockInferencer is a test double. InferFunc decides the response; every
// call is recorded in Prompts.
type MockInferencer struct {
	InferFunc func(ctx context.Context, opts *Options, prompt string) (string, error)

	mu      sync.Mutex
	Prompts []string
}

// NewMockInferencer returns a mock that always answers with response.
func NewMockInferencer(response string) *MockInferencer {
	return &MockInferencer{
		InferFunc: func(context.Context, *Options, string) (string, error) {
			return response, nil
		},
	}
}

func (m *MockInferencer) Infer(ctx context.Context, opts *Options, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()

	if m.InferFunc != nil {
		return m.InferFunc(ctx, opts, prompt)
	}
	return "", nil
}

func (m *MockInferencer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

package mock

import (
	"context"
	"sync"
)

// MockCompleter is a test double for ai.Completer.
// By default it echoes the prompt back, which lets tests check that
// retrieved titles reached the model.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	// ModelName is returned by Model. Defaults to "mock-llm".
	ModelName string

	mu      sync.Mutex
	prompts []string
}

// NewMockCompleter creates a mock completer that echoes prompts.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{ModelName: "mock-llm"}
}

// Complete records prompt and returns the configured answer.
func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return prompt, nil
}

// Model returns the configured model name.
func (m *MockCompleter) Model() string {
	return m.ModelName
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns a copy of every prompt received, in call order.
func (m *MockCompleter) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Reset clears recorded prompts and custom functions.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = nil
	m.CompleteFunc = nil
}

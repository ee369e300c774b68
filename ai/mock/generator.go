package mock

import (
	"context"
	"sync"
)

// MockGenerator is a test double for ai.Generator.
// It records every prompt pair it receives.
type MockGenerator struct {
	// CompleteFunc is called by Complete if set.
	// If nil, Complete returns Answer.
	CompleteFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Answer is the canned completion used when CompleteFunc is nil.
	Answer string

	mu    sync.Mutex
	calls []Prompt
}

// Prompt is one recorded Complete call.
type Prompt struct {
	System string
	User   string
}

// NewMockGenerator creates a mock generator returning a fixed answer.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{Answer: "mock answer"}
}

// Complete records the prompts and returns the canned answer.
func (m *MockGenerator) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Prompt{System: systemPrompt, User: userPrompt})
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemPrompt, userPrompt)
	}
	return m.Answer, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastPrompt returns the most recent prompt pair, or the zero value.
func (m *MockGenerator) LastPrompt() Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return Prompt{}
	}
	return m.calls[len(m.calls)-1]
}

// Reset clears recorded calls and the custom function.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.CompleteFunc = nil
}

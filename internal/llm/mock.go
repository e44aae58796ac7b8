package llm

import (
	"context"
)

// MockClient is a configurable completion client for testing.
// Set the response fields to control what Complete returns.
type MockClient struct {
	CompleteResponse string
	CompleteError    error

	// Call tracking for assertions
	CompleteCalls []MockCompleteCall
}

type MockCompleteCall struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

func NewMockClient() *MockClient {
	return &MockClient{
		CompleteResponse: "Mock answer grounded in the supplied findings.",
	}
}

func (m *MockClient) Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	m.CompleteCalls = append(m.CompleteCalls, MockCompleteCall{
		Prompt:      prompt,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if m.CompleteError != nil {
		return "", m.CompleteError
	}
	return m.CompleteResponse, nil
}

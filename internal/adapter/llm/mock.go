package llm

import (
	"context"
	"fmt"

	"docchat/internal/port"
)

// MockLLM answers without a provider by echoing the latest user message.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Chat(ctx context.Context, messages []port.Message, opts port.ChatOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == port.RoleUser {
			return fmt.Sprintf("Mock answer to: %s", messages[i].Content), nil
		}
	}
	return "Mock answer.", nil
}

func (m *MockLLM) ModelName() string {
	return "mock"
}

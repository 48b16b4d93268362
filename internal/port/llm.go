package port

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

type ChatOptions struct {
	Temperature float64
	MaxTokens   int
}

// LLM represents a language model for text generation.
type LLM interface {
	// Chat generates the next assistant message for the conversation.
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}

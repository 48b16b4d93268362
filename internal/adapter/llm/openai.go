package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"docchat/config"
	"docchat/internal/adapter/httpx"
	"docchat/internal/adapter/retry"
	"docchat/internal/domain"
	"docchat/internal/port"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIClient talks to any OpenAI-compatible /chat/completions endpoint.
type OpenAIClient struct {
	model string
	conn  *httpx.Connector
	retry retry.RetryConfig
}

// ChatMessage represents a message in the chat format
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the request format for chat completions
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatResponse is the response format from chat completions
type ChatResponse struct {
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func NewOpenAIClient(cfg config.GenerationConfig, httpCfg config.HTTPConfig, rc retry.RetryConfig) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIClient{
		model: cfg.Model,
		conn:  httpx.NewBaseConnector("openai", baseURL, cfg.APIKeyEnv, httpx.AuthBearer, httpCfg),
		retry: rc,
	}
}

// Chat sends a chat completion request
func (c *OpenAIClient) Chat(ctx context.Context, messages []port.Message, opts port.ChatOptions) (string, error) {
	req := ChatRequest{
		Model:     c.model,
		Messages:  make([]ChatMessage, len(messages)),
		MaxTokens: opts.MaxTokens,
	}
	temperature := opts.Temperature
	req.Temperature = &temperature
	for i, m := range messages {
		req.Messages[i] = ChatMessage{Role: string(m.Role), Content: m.Content}
	}

	resp, err := retry.Do(ctx, c.retry, func() (*ChatResponse, error) {
		var resp ChatResponse
		if err := c.conn.DoRequest(ctx, http.MethodPost, "/chat/completions", req, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &domain.ProviderError{Kind: domain.ProviderRejected, Provider: "openai", Message: "response contained no message"}
	}

	ctxzap.Debug(ctx, "chat completion finished",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) ModelName() string {
	return c.model
}

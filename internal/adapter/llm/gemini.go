package llm

import (
	"context"
	"fmt"
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

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient calls the Generative Language API generateContent method.
type GeminiClient struct {
	model string
	conn  *httpx.Connector
	retry retry.RetryConfig
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func NewGeminiClient(cfg config.GenerationConfig, httpCfg config.HTTPConfig, rc retry.RetryConfig) *GeminiClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiClient{
		model: strings.TrimPrefix(cfg.Model, "models/"),
		conn:  httpx.NewBaseConnector("gemini", baseURL, cfg.APIKeyEnv, httpx.AuthGoogleKey, httpCfg),
		retry: rc,
	}
}

func (c *GeminiClient) Chat(ctx context.Context, messages []port.Message, opts port.ChatOptions) (string, error) {
	req := generateRequest{
		GenerationConfig: generationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxTokens,
		},
	}

	var system []string
	for _, m := range messages {
		switch m.Role {
		case port.RoleSystem:
			system = append(system, m.Content)
		case port.RoleAssistant:
			req.Contents = append(req.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			req.Contents = append(req.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}
	if len(system) > 0 {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: strings.Join(system, "\n\n")}}}
	}

	endpoint := "/models/" + c.model + ":generateContent"
	resp, err := retry.Do(ctx, c.retry, func() (*generateResponse, error) {
		var resp generateResponse
		if err := c.conn.DoRequest(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return "", err
	}

	if resp.PromptFeedback.BlockReason != "" {
		return "", &domain.ProviderError{
			Kind:     domain.ProviderRejected,
			Provider: "gemini",
			Message:  fmt.Sprintf("prompt blocked: %s", resp.PromptFeedback.BlockReason),
		}
	}

	var text strings.Builder
	if len(resp.Candidates) > 0 {
		for _, part := range resp.Candidates[0].Content.Parts {
			text.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		reason := "no candidates"
		if len(resp.Candidates) > 0 {
			reason = "finish reason " + resp.Candidates[0].FinishReason
		}
		return "", &domain.ProviderError{Kind: domain.ProviderRejected, Provider: "gemini", Message: "empty response: " + reason}
	}

	ctxzap.Debug(ctx, "generateContent finished",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
		zap.Int("candidate_tokens", resp.UsageMetadata.CandidatesTokenCount),
	)

	return text.String(), nil
}

func (c *GeminiClient) ModelName() string {
	return c.model
}

package embedding

import (
	"context"
	"fmt"
	"net/http"

	"docchat/config"
	"docchat/internal/adapter/httpx"
	"docchat/internal/adapter/retry"
	"docchat/internal/domain"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIEmbedder talks to any OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	model     string
	batchSize int
	conn      *httpx.Connector
	retry     retry.RetryConfig
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Usage embeddingUsage  `json:"usage"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

func NewOpenAIEmbedder(cfg config.EmbeddingConfig, httpCfg config.HTTPConfig, rc retry.RetryConfig) *OpenAIEmbedder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIEmbedder{
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
		conn:      httpx.NewBaseConnector("openai", baseURL, cfg.APIKeyEnv, httpx.AuthBearer, httpCfg),
		retry:     rc,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return embedInBatches(ctx, texts, e.batchSize, func(batch []string) ([][]float32, error) {
		return retry.Do(ctx, e.retry, func() ([][]float32, error) {
			return e.embedBatch(ctx, batch)
		})
	})
}

func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := embeddingRequest{
		Input: texts,
		Model: e.model,
	}

	var embResp embeddingResponse
	if err := e.conn.DoRequest(ctx, http.MethodPost, "/embeddings", reqBody, &embResp); err != nil {
		return nil, err
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range embResp.Data {
		if data.Index >= 0 && data.Index < len(embeddings) {
			embeddings[data.Index] = data.Embedding
		}
	}
	for i, emb := range embeddings {
		if len(emb) == 0 {
			return nil, &domain.ProviderError{
				Kind:     domain.ProviderRejected,
				Provider: "openai",
				Message:  fmt.Sprintf("no embedding returned for input %d", i),
			}
		}
	}

	return embeddings, nil
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"docchat/config"
	"docchat/internal/adapter/httpx"
	"docchat/internal/adapter/retry"
	"docchat/internal/domain"
)

const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const (
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// GeminiEmbedder calls the Generative Language API batchEmbedContents method.
type GeminiEmbedder struct {
	model     string
	batchSize int
	conn      *httpx.Connector
	retry     retry.RetryConfig
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiEmbedRequest struct {
	Model    string        `json:"model"`
	Content  geminiContent `json:"content"`
	TaskType string        `json:"taskType,omitempty"`
}

type geminiBatchRequest struct {
	Requests []geminiEmbedRequest `json:"requests"`
}

type geminiBatchResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

func NewGeminiEmbedder(cfg config.EmbeddingConfig, httpCfg config.HTTPConfig, rc retry.RetryConfig) *GeminiEmbedder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	return &GeminiEmbedder{
		model:     qualifiedModel(cfg.Model),
		batchSize: cfg.BatchSize,
		conn:      httpx.NewBaseConnector("gemini", baseURL, cfg.APIKeyEnv, httpx.AuthGoogleKey, httpCfg),
		retry:     rc,
	}
}

// qualifiedModel adds the "models/" prefix the REST API expects.
func qualifiedModel(model string) string {
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}

func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embed(ctx, texts, taskRetrievalDocument)
}

func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.embed(ctx, []string{text}, taskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *GeminiEmbedder) embed(ctx context.Context, texts []string, task string) ([][]float32, error) {
	return embedInBatches(ctx, texts, e.batchSize, func(batch []string) ([][]float32, error) {
		return retry.Do(ctx, e.retry, func() ([][]float32, error) {
			return e.embedBatch(ctx, batch, task)
		})
	})
}

func (e *GeminiEmbedder) embedBatch(ctx context.Context, texts []string, task string) ([][]float32, error) {
	reqBody := geminiBatchRequest{Requests: make([]geminiEmbedRequest, len(texts))}
	for i, text := range texts {
		reqBody.Requests[i] = geminiEmbedRequest{
			Model:    e.model,
			Content:  geminiContent{Parts: []geminiPart{{Text: text}}},
			TaskType: task,
		}
	}

	var resp geminiBatchResponse
	endpoint := "/" + e.model + ":batchEmbedContents"
	if err := e.conn.DoRequest(ctx, http.MethodPost, endpoint, reqBody, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, &domain.ProviderError{
			Kind:     domain.ProviderRejected,
			Provider: "gemini",
			Message:  fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)),
		}
	}

	embeddings := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		embeddings[i] = emb.Values
	}
	return embeddings, nil
}

func (e *GeminiEmbedder) ModelName() string {
	return e.model
}

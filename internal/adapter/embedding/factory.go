package embedding

import (
	"fmt"

	"docchat/config"
	"docchat/internal/adapter/retry"
	"docchat/internal/domain"
	"docchat/internal/port"
)

// New builds the configured embedding provider. The client is long-lived and
// reads its API key on every request.
func New(cfg config.EmbeddingConfig, httpCfg config.HTTPConfig, rc retry.RetryConfig) (port.Embedder, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiEmbedder(cfg, httpCfg, rc), nil
	case "openai":
		return NewOpenAIEmbedder(cfg, httpCfg, rc), nil
	case "mock":
		return NewMockEmbedder(cfg.Dimension), nil
	}
	return nil, &domain.ConfigError{Field: "embedding.provider", Reason: fmt.Sprintf("unknown provider %q", cfg.Provider)}
}

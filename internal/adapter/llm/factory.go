package llm

import (
	"fmt"

	"docchat/config"
	"docchat/internal/adapter/retry"
	"docchat/internal/domain"
	"docchat/internal/port"
)

// New builds the configured generation provider.
func New(cfg config.GenerationConfig, httpCfg config.HTTPConfig, rc retry.RetryConfig) (port.LLM, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiClient(cfg, httpCfg, rc), nil
	case "openai":
		return NewOpenAIClient(cfg, httpCfg, rc), nil
	case "mock":
		return NewMockLLM(), nil
	}
	return nil, &domain.ConfigError{Field: "generation.provider", Reason: fmt.Sprintf("unknown provider %q", cfg.Provider)}
}

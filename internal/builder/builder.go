package builder

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"docchat/config"
	"docchat/internal/adapter/embedding"
	"docchat/internal/adapter/llm"
	"docchat/internal/api"
	sessionapi "docchat/internal/api/session"
	"docchat/internal/usecase"
)

// BuildSession creates the providers named in cfg and opens the session.
func BuildSession(ctx context.Context, cfg *config.Config) (*usecase.Session, error) {
	embedder, err := embedding.New(cfg.Embedding, cfg.HTTP, cfg.Retry)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	model, err := llm.New(cfg.Generation, cfg.HTTP, cfg.Retry)
	if err != nil {
		return nil, fmt.Errorf("failed to create generative model: %w", err)
	}

	session, err := usecase.NewSession(ctx, cfg, embedder, model)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	return session, nil
}

// BuildApp wires the HTTP server around an opened session.
func BuildApp(cfg *config.Config, session *usecase.Session, logger *zap.Logger) *App {
	handler := sessionapi.NewHandler(session, cfg.Server.MaxUploadSize)
	router := api.SetupRouter(handler, logger, cfg.Server.RequestTimeout)

	return &App{
		server: &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: router,
		},
		session: session,
		logger:  logger,
	}
}

package builder

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"docchat/internal/usecase"
)

// App represents the application with all its components
type App struct {
	server  *http.Server
	session *usecase.Session
	logger  *zap.Logger
}

// Run serves until ctx is done, an interrupt arrives or the server fails.
func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		a.logger.Error("Server error", zap.Error(err))
		a.closeSession()
		return err
	case sig := <-sigChan:
		a.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
		a.logger.Info("Context done, shutting down")
	}

	return a.shutdown()
}

// shutdown gracefully shuts down the application
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a.logger.Info("Shutting down server gracefully")

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("Server shutdown error", zap.Error(err))
		a.closeSession()
		return err
	}

	a.closeSession()
	a.logger.Info("Application stopped gracefully")
	return nil
}

func (a *App) closeSession() {
	a.logger.Info("Closing session index")
	if err := a.session.Close(); err != nil {
		a.logger.Error("Session close error", zap.Error(err))
	}
}

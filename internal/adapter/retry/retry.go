package retry

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"docchat/internal/domain"
)

const (
	defaultAttempts = 3
	defaultDelay    = 500 * time.Millisecond
	defaultMaxDelay = 5 * time.Second
)

type RetryConfig struct {
	Attempts uint          `yaml:"attempts" env:"ATTEMPTS"`
	Delay    time.Duration `yaml:"delay" env:"DELAY"`
	MaxDelay time.Duration `yaml:"max_delay" env:"MAX_DELAY"`
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
		MaxDelay: defaultMaxDelay,
	}
}

// ToRetryOptions builds retry-go options that back off exponentially and only
// retry transient provider failures.
func (rc RetryConfig) ToRetryOptions(ctx context.Context) []retry.Option {
	attempts := rc.Attempts
	if attempts == 0 {
		attempts = 1
	}
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(rc.Delay),
		retry.MaxDelay(rc.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(domain.IsTransient),
		retry.OnRetry(func(n uint, err error) {
			ctxzap.Warn(ctx, "retrying provider call", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	}
}

// Do runs fn under the retry policy and returns its value. A context that
// ends while waiting between attempts is reported as a transient provider
// error carrying the provider of the last failed attempt.
func Do[T any](ctx context.Context, rc RetryConfig, fn func() (T, error)) (T, error) {
	var lastErr error
	v, err := retry.DoWithData(func() (T, error) {
		v, err := fn()
		if err != nil {
			lastErr = err
		}
		return v, err
	}, rc.ToRetryOptions(ctx)...)
	if err != nil {
		return v, interrupted(err, lastErr)
	}
	return v, nil
}

func interrupted(err, lastErr error) error {
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return err
	}

	provider := ""
	if errors.As(lastErr, &pe) {
		provider = pe.Provider
	}
	return &domain.ProviderError{
		Kind:     domain.ProviderTransient,
		Provider: provider,
		Message:  "request interrupted: " + err.Error(),
		Err:      err,
	}
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrNotReady is returned by WaitReady when the provider never answered.
var ErrNotReady = errors.New("llm service not available after maximum retries")

// WaitReady pings p up to attempts times, sleeping delay between failed
// attempts, and returns nil on the first success.
func WaitReady(ctx context.Context, p Provider, attempts int, delay time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		if lastErr = p.Ping(ctx); lastErr == nil {
			logger.Info("llm service is ready", zap.String("provider", p.Name()), zap.Int("attempt", i))
			return nil
		}
		logger.Info("waiting for llm service",
			zap.String("provider", p.Name()),
			zap.Int("attempt", i),
			zap.Int("max_attempts", attempts),
			zap.Error(lastErr))

		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrNotReady, ctx.Err())
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%w: %w", ErrNotReady, lastErr)
}

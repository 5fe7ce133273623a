package store

import (
	"context"
	"log/slog"

	"github.com/ravenjobstore/store/internal/jobstoreerr"
)

// withRetry replays op while it keeps losing optimistic-concurrency races,
// up to maxAttempts total tries (spec.md §4.9). Any other error, or the
// final concurrency loss once the budget is exhausted, is returned
// unchanged to the caller — the Retry Wrapper never reshapes an error it
// didn't itself time out on.
func withRetry(ctx context.Context, logger *slog.Logger, maxAttempts int, op func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !jobstoreerr.IsConcurrency(lastErr) {
			return lastErr
		}
		if attempt < maxAttempts {
			logger.Debug("retrying after concurrency conflict", "attempt", attempt, "error", lastErr)
			continue
		}
		logger.Warn("exhausted concurrency retry budget", "attempts", attempt, "error", lastErr)
	}
	return lastErr
}

// withRetryValue is withRetry's generic counterpart for operations that
// also return a value alongside the error.
func withRetryValue[T any](ctx context.Context, logger *slog.Logger, maxAttempts int, op func() (T, error)) (T, error) {
	var result T
	err := withRetry(ctx, logger, maxAttempts, func() error {
		v, err := op()
		if err == nil {
			result = v
		}
		return err
	})
	return result, err
}

package store

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravenjobstore/store/internal/jobstoreerr"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nil, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func TestWithRetrySucceedsEventually(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), discardLogger(), 3, func() error {
		attempts++
		if attempts < 2 {
			return jobstoreerr.Concurrencyf("lost the race")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestWithRetryExhaustsBudget(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), discardLogger(), 3, func() error {
		attempts++
		return jobstoreerr.Concurrencyf("always loses")
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.True(t, jobstoreerr.IsConcurrency(err))
}

func TestWithRetryPassesThroughNonConcurrencyErrors(t *testing.T) {
	attempts := 0
	sentinel := errors.New("boom")
	err := withRetry(context.Background(), discardLogger(), 5, func() error {
		attempts++
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, attempts)
}

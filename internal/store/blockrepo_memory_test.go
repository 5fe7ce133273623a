package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBlockRepository(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryBlockRepository()

	blocked, err := repo.IsBlocked(ctx, "job-1")
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, repo.Block(ctx, "job-1"))
	blocked, err = repo.IsBlocked(ctx, "job-1")
	require.NoError(t, err)
	assert.True(t, blocked)

	list, err := repo.ListBlocked(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"job-1"}, list)

	require.NoError(t, repo.Release(ctx, "job-1"))
	blocked, err = repo.IsBlocked(ctx, "job-1")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestMemoryBlockRepositoryReleaseAll(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryBlockRepository()
	require.NoError(t, repo.Block(ctx, "a"))
	require.NoError(t, repo.Block(ctx, "b"))

	require.NoError(t, repo.ReleaseAll(ctx))
	list, err := repo.ListBlocked(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

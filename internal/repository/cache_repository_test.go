package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/huddle-api/pkg/errors"
)

func newCacheRepo(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	repo := NewCacheRepository(client, nil)
	t.Cleanup(func() { _ = repo.Close() })
	return repo, srv
}

func TestCacheRepositorySetGet(t *testing.T) {
	repo, srv := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "overlaps:m-1", map[string]string{"start": "9:00 am"}, time.Minute))
	assert.True(t, srv.Exists("huddle:overlaps:m-1"))

	var got map[string]string
	require.NoError(t, repo.Get(ctx, "overlaps:m-1", &got))
	assert.Equal(t, "9:00 am", got["start"])

	srv.FastForward(2 * time.Minute)
	assert.ErrorIs(t, repo.Get(ctx, "overlaps:m-1", &got), appErrors.ErrCacheMiss)
}

func TestCacheRepositoryDropsCorruptEntries(t *testing.T) {
	repo, srv := newCacheRepo(t)
	require.NoError(t, srv.Set("huddle:overlaps:bad", "{not json"))

	var got map[string]string
	assert.ErrorIs(t, repo.Get(context.Background(), "overlaps:bad", &got), appErrors.ErrCacheMiss)
	assert.False(t, srv.Exists("huddle:overlaps:bad"))
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, srv := newCacheRepo(t)
	ctx := context.Background()
	for i := 0; i < 250; i++ {
		require.NoError(t, repo.Set(ctx, fmt.Sprintf("overlaps:m-1:%d", i), i, time.Minute))
	}
	require.NoError(t, repo.Set(ctx, "overlaps:m-2", 1, time.Minute))

	require.NoError(t, repo.DeleteByPattern(ctx, "overlaps:m-1*"))
	assert.Len(t, srv.Keys(), 1)
	assert.True(t, srv.Exists("huddle:overlaps:m-2"))
}

func TestCacheRepositoryNilClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	var dest int
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", 1, time.Second))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "*"))
}

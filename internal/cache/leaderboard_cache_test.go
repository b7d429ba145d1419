package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) LeaderboardCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewLeaderboardCache(client)
}

func TestGetTopOrderedWithMeta(t *testing.T) {
	lb := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, lb.UpsertEntry(ctx, "A", 500, 5, "🦊"))
	require.NoError(t, lb.UpsertEntry(ctx, "B", 900, 6, "🦁"))
	require.NoError(t, lb.UpsertEntry(ctx, "C", 100, 2, "🐻"))

	entries, err := lb.GetTop(ctx, 50)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "B", entries[0].Name)
	assert.Equal(t, 900, entries[0].Exp)
	assert.Equal(t, 6, entries[0].Level)
	assert.Equal(t, "🦁", entries[0].Avatar)
	assert.Equal(t, "A", entries[1].Name)
	assert.Equal(t, "C", entries[2].Name)
}

func TestGetTopHonorsLimit(t *testing.T) {
	lb := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, lb.UpsertEntry(ctx, "A", 500, 5, "🦊"))
	require.NoError(t, lb.UpsertEntry(ctx, "B", 900, 6, "🦁"))
	require.NoError(t, lb.UpsertEntry(ctx, "C", 100, 2, "🐻"))

	entries, err := lb.GetTop(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "B", entries[0].Name)
	assert.Equal(t, "A", entries[1].Name)
}

func TestGetTopEmpty(t *testing.T) {
	lb := newTestCache(t)

	entries, err := lb.GetTop(context.Background(), 50)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpsertEntryRescores(t *testing.T) {
	lb := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, lb.UpsertEntry(ctx, "A", 100, 2, "🐻"))
	require.NoError(t, lb.UpsertEntry(ctx, "A", 800, 6, "🐻"))

	entries, err := lb.GetTop(ctx, 50)
	require.NoError(t, err)
	require.Len(t, entries, 1, "re-upserting the same name must not duplicate")
	assert.Equal(t, 800, entries[0].Exp)
	assert.Equal(t, 6, entries[0].Level)
}

func TestSetAvatar(t *testing.T) {
	lb := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, lb.UpsertEntry(ctx, "A", 500, 5, "🐻"))
	require.NoError(t, lb.SetAvatar(ctx, "A", "🦊"))

	entries, err := lb.GetTop(ctx, 50)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "🦊", entries[0].Avatar)
	assert.Equal(t, 500, entries[0].Exp, "changing the avatar must not touch the score")
}

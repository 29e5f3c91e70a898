package redis

import (
	"context"
	"testing"
	"time"

	"clickboard/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, *CacheRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewCacheRepository(WrapClient(client), time.Minute, 10*time.Second)
}

func TestCacheRepository_Characters(t *testing.T) {
	mr, cache := newTestCache(t)
	ctx := context.Background()

	_, ok, err := cache.GetCharacters(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	in := []*model.CharacterSummary{{ID: "c1", Name: "Alpha", TotalPoints: 7}}
	require.NoError(t, cache.SetCharacters(ctx, in))

	out, ok, err := cache.GetCharacters(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, in, out)

	mr.FastForward(61 * time.Second)
	_, ok, err = cache.GetCharacters(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "entry expires after its ttl")
}

func TestCacheRepository_LeaderboardAndInvalidate(t *testing.T) {
	mr, cache := newTestCache(t)
	ctx := context.Background()

	rows := []model.PointsRow{{CharacterID: "c1", TotalPoints: 12}}
	require.NoError(t, cache.SetLeaderboard(ctx, "24h", rows))
	require.NoError(t, cache.SetLeaderboard(ctx, "country", rows))
	require.NoError(t, cache.SetCharacters(ctx, []*model.CharacterSummary{{ID: "c1"}}))
	assert.Equal(t, 10*time.Second, mr.TTL("leaderboard:24h"))

	got, ok, err := cache.GetLeaderboard(ctx, "24h")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, rows, got)

	require.NoError(t, cache.Invalidate(ctx, "24h"))
	assert.False(t, mr.Exists("leaderboard:24h"))
	assert.False(t, mr.Exists("characters"))
	assert.True(t, mr.Exists("leaderboard:country"))
}

func TestCacheRepository_CorruptEntry(t *testing.T) {
	mr, cache := newTestCache(t)
	require.NoError(t, mr.Set("characters", "{not json"))

	_, ok, err := cache.GetCharacters(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

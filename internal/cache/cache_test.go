package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	id := uuid.MustParse("8a1f4f0e-54b4-4c5e-9b8e-6c3f7a2d1e00")

	assert.Equal(t, "balance-gen:8a1f4f0e-54b4-4c5e-9b8e-6c3f7a2d1e00", BalanceGenerationKey(id))
	assert.Equal(t, "balance:8a1f4f0e-54b4-4c5e-9b8e-6c3f7a2d1e00:3", BalanceKey(id, 3))
	assert.Equal(t, "ranking-gen:8a1f4f0e-54b4-4c5e-9b8e-6c3f7a2d1e00", RankingGenerationKey(id))

	tests := []struct {
		name       string
		start, end string
		txType     string
		want       string
	}{
		{"full window", "2024-01-01", "2024-01-31", "withdrawal", "ranking:8a1f4f0e-54b4-4c5e-9b8e-6c3f7a2d1e00:7:2024-01-01:2024-01-31:withdrawal"},
		{"open window", "", "", "deposit", "ranking:8a1f4f0e-54b4-4c5e-9b8e-6c3f7a2d1e00:7:-:-:deposit"},
		{"open end", "2024-01-01", "", "withdrawal", "ranking:8a1f4f0e-54b4-4c5e-9b8e-6c3f7a2d1e00:7:2024-01-01:-:withdrawal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RankingKey(id, 7, tt.start, tt.end, tt.txType))
		})
	}
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	c := NewNoop()

	require.NoError(t, c.Set(ctx, "k", map[string]string{"a": "b"}, time.Minute))

	var dest map[string]string
	found, err := c.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, dest)

	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.Bump(ctx, "gen"))
	gen, err := c.Generation(ctx, "gen")
	require.NoError(t, err)
	assert.Zero(t, gen)
	assert.NoError(t, c.Ping(ctx))
}

func TestRedisCache_UnreachableServer(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	c := NewRedisCache(rdb)
	ctx := context.Background()

	var dest string
	found, err := c.Get(ctx, "k", &dest)
	assert.Error(t, err)
	assert.False(t, found)

	assert.Error(t, c.Set(ctx, "k", "v", time.Minute))
	assert.Error(t, c.Ping(ctx))
	assert.NoError(t, c.Delete(ctx))
}

func TestRedisCache_SetRejectsUnencodableValue(t *testing.T) {
	c := NewRedisCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}))

	err := c.Set(context.Background(), "k", make(chan int), time.Minute)
	assert.Error(t, err)
}

type cachedBalance struct {
	UserID  uuid.UUID `json:"user_id"`
	Balance string    `json:"balance"`
}

func newMiniredisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb), mr
}

func TestRedisCache_RoundTrip(t *testing.T) {
	c, mr := newMiniredisCache(t)
	ctx := context.Background()

	want := cachedBalance{UserID: uuid.New(), Balance: "100.00"}
	require.NoError(t, c.Set(ctx, "balance:a:0", want, time.Minute))

	raw, err := mr.Get("balance:a:0")
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_id":"`+want.UserID.String()+`","balance":"100.00"}`, raw)

	var got cachedBalance
	found, err := c.Get(ctx, "balance:a:0", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestRedisCache_MissingKeyIsMiss(t *testing.T) {
	c, _ := newMiniredisCache(t)

	var got cachedBalance
	found, err := c.Get(context.Background(), "balance:absent:0", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, cachedBalance{}, got)
}

func TestRedisCache_AppliesTTL(t *testing.T) {
	c, mr := newMiniredisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "ranking:u:0:-:-:withdrawal", []string{"food"}, 5*time.Minute))
	assert.Equal(t, 5*time.Minute, mr.TTL("ranking:u:0:-:-:withdrawal"))

	mr.FastForward(5*time.Minute + time.Second)

	var got []string
	found, err := c.Get(ctx, "ranking:u:0:-:-:withdrawal", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_Delete(t *testing.T) {
	c, mr := newMiniredisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
	require.NoError(t, c.Delete(ctx, "a", "b"))

	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))
}

func TestRedisCache_GenerationBump(t *testing.T) {
	c, mr := newMiniredisCache(t)
	ctx := context.Background()
	id := uuid.New()

	gen, err := c.Generation(ctx, BalanceGenerationKey(id))
	require.NoError(t, err)
	assert.Zero(t, gen)

	require.NoError(t, c.Set(ctx, BalanceKey(id, gen), "100.00", time.Minute))
	require.NoError(t, c.Bump(ctx, BalanceGenerationKey(id), RankingGenerationKey(id)))
	require.NoError(t, c.Bump(ctx, BalanceGenerationKey(id)))

	gen, err = c.Generation(ctx, BalanceGenerationKey(id))
	require.NoError(t, err)
	assert.Equal(t, int64(2), gen)

	rankingGen, err := c.Generation(ctx, RankingGenerationKey(id))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rankingGen)

	assert.Zero(t, mr.TTL(BalanceGenerationKey(id)))

	var balance string
	found, err := c.Get(ctx, BalanceKey(id, gen), &balance)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_BumpWithoutKeys(t *testing.T) {
	c, _ := newMiniredisCache(t)
	assert.NoError(t, c.Bump(context.Background()))
}

func TestRedisCache_GenerationRejectsNonInteger(t *testing.T) {
	c, mr := newMiniredisCache(t)
	require.NoError(t, mr.Set("balance-gen:x", "not-a-number"))

	_, err := c.Generation(context.Background(), "balance-gen:x")
	assert.Error(t, err)
}

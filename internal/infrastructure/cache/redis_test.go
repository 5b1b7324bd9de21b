package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedBook struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Year  int    `json:"publication_year"`
}

func setupCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCacheFromClient(client), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	in := cachedBook{ID: "b1", Title: "Dune", Year: 1965}
	require.NoError(t, c.Set(ctx, "book:b1", in, time.Minute))

	var out cachedBook
	found, err := c.Get(ctx, "book:b1", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)

	mr.FastForward(2 * time.Minute)
	found, err = c.Get(ctx, "book:b1", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_GetMissLeavesDestUntouched(t *testing.T) {
	c, _ := setupCache(t)

	out := cachedBook{Title: "unchanged"}
	found, err := c.Get(context.Background(), "book:missing", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "unchanged", out.Title)
}

func TestRedisCache_CorruptEntryIsEvicted(t *testing.T) {
	c, mr := setupCache(t)
	require.NoError(t, mr.Set("book:bad", "{not json"))

	var out cachedBook
	found, err := c.Get(context.Background(), "book:bad", &out)
	assert.Error(t, err)
	assert.False(t, found)
	assert.False(t, mr.Exists("book:bad"))
}

func TestRedisCache_DeletePattern(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	for _, k := range []string{"author:1", "author:2", "book:1"} {
		require.NoError(t, c.Set(ctx, k, 1, time.Minute))
	}

	require.NoError(t, c.DeletePattern(ctx, "author:*"))
	assert.False(t, mr.Exists("author:1"))
	assert.False(t, mr.Exists("author:2"))
	assert.True(t, mr.Exists("book:1"))
}

func TestRedisCache_Counters(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	n, err := c.Increment(ctx, "login:failed:alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.Increment(ctx, "login:failed:alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, c.Expire(ctx, "login:failed:alice", 10*time.Second))
	ttl, err := c.TTL(ctx, "login:failed:alice")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, ttl)

	exists, err := c.Exists(ctx, "login:failed:alice")
	require.NoError(t, err)
	assert.True(t, exists)

	mr.FastForward(11 * time.Second)
	exists, err = c.Exists(ctx, "login:failed:alice")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNamespace(t *testing.T) {
	assert.Equal(t, "book", namespace("book:123"))
	assert.Equal(t, "plain", namespace("plain"))
	assert.Equal(t, ":odd", namespace(":odd"))
}

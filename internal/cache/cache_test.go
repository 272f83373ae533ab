package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

func setupRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return NewRedisWithClient(client, DefaultConfig()), mr
}

func TestMemorySetGetAndExpire(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mem := NewMemory(DefaultConfig()).WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, "entries", []byte(`{"items":[]}`), time.Minute))
	got, err := mem.Get(ctx, "entries")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, string(got))

	now = now.Add(2 * time.Minute)
	_, err = mem.Get(ctx, "entries")
	assert.ErrorIs(t, err, interfaces.ErrCacheMiss)
	assert.Equal(t, 0, mem.Len())
}

func TestMemoryDeleteAndClear(t *testing.T) {
	mem := NewMemory(DefaultConfig())
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, mem.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, mem.Delete(ctx, "a"))

	_, err := mem.Get(ctx, "a")
	assert.ErrorIs(t, err, interfaces.ErrCacheMiss)

	require.NoError(t, mem.Clear(ctx))
	assert.Equal(t, 0, mem.Len())
}

func TestMemoryReturnsCopies(t *testing.T) {
	mem := NewMemory(DefaultConfig())
	ctx := context.Background()
	value := []byte("abc")
	require.NoError(t, mem.Set(ctx, "k", value, 0))
	value[0] = 'z'

	got, err := mem.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestRedisSetAndGet(t *testing.T) {
	rc, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "entries", []byte("payload"), time.Minute))
	assert.True(t, mr.Exists("jumpgate:entries"))

	got, err := rc.Get(ctx, "entries")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestRedisMissAndExpiry(t *testing.T) {
	rc, mr := setupRedis(t)
	ctx := context.Background()

	_, err := rc.Get(ctx, "absent")
	assert.ErrorIs(t, err, interfaces.ErrCacheMiss)

	require.NoError(t, rc.Set(ctx, "short", []byte("x"), time.Second))
	mr.FastForward(2 * time.Second)
	_, err = rc.Get(ctx, "short")
	assert.ErrorIs(t, err, interfaces.ErrCacheMiss)
}

func TestRedisClearOnlyTouchesPrefix(t *testing.T) {
	rc, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "one", []byte("1"), time.Minute))
	require.NoError(t, rc.Set(ctx, "two", []byte("2"), time.Minute))
	require.NoError(t, mr.Set("other:key", "keep"))

	require.NoError(t, rc.Clear(ctx))
	assert.False(t, mr.Exists("jumpgate:one"))
	assert.False(t, mr.Exists("jumpgate:two"))
	assert.True(t, mr.Exists("other:key"))
}

func TestNewRedisPingsServer(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rc, err := NewRedis(context.Background(), RedisConfig{Addr: mr.Addr(), Cache: DefaultConfig()})
	require.NoError(t, err)
	defer rc.Close()

	_, err = NewRedis(context.Background(), RedisConfig{Addr: "127.0.0.1:1", Cache: DefaultConfig()})
	assert.Error(t, err)
}

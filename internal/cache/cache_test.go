package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func exerciseClient(t *testing.T, c Client, expire func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	require.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", got)

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.Set(ctx, "short", "x", 50*time.Millisecond))
	expire(100 * time.Millisecond)
	_, err = c.Get(ctx, "short")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "k"))
	ok, err = c.Exists(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Ping(ctx))
	st, err := c.Stats(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, st.Driver)
}

func TestMemoryClient(t *testing.T) {
	c := NewMemory("test")
	exerciseClient(t, c, func(d time.Duration) { time.Sleep(d) })
	require.NoError(t, c.Close())
}

func TestRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := New(context.Background(), Config{Driver: "redis", Addr: mr.Addr(), Prefix: "sd"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	exerciseClient(t, c, mr.FastForward)

	require.NoError(t, c.Set(context.Background(), "p", "1", 0))
	require.True(t, mr.Exists("sd:p"))

	rdb, ok := Redis(c)
	require.True(t, ok)
	require.NotNil(t, rdb)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), Config{Driver: "memcached"})
	require.Error(t, err)
}

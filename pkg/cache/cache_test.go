package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	X int     `json:"x"`
	Y float64 `json:"y"`
}

func TestMemoryCache_RoundTripsStructsAndStrings(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "p", point{X: 1, Y: 2.5}, time.Minute))
	require.NoError(t, mc.Set(ctx, "s", "hello", 0))

	var p point
	require.NoError(t, mc.Get(ctx, "p", &p))
	assert.Equal(t, point{X: 1, Y: 2.5}, p)

	var s string
	require.NoError(t, mc.Get(ctx, "s", &s))
	assert.Equal(t, "hello", s)

	assert.ErrorIs(t, mc.Get(ctx, "missing", &s), ErrCacheMiss)
}

func TestMemoryCache_ExpiryAndDelete(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "k", 1, time.Nanosecond))
	time.Sleep(time.Millisecond)
	var v int
	assert.ErrorIs(t, mc.Get(ctx, "k", &v), ErrCacheMiss)

	require.NoError(t, mc.Set(ctx, "k", 2, time.Minute))
	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, mc.Delete(ctx, "k"))
	ok, _ = mc.Exists(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "a", 1, 0))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", 2, 0))
	time.Sleep(time.Millisecond)
	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	require.NoError(t, mc.Set(ctx, "c", 3, 0))

	assert.NoError(t, mc.Get(ctx, "a", &v))
	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "c", &v))
}

func TestLayeredCache_FallsBackToRemote(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote, WithLayeredMemoryTTL(time.Minute))
	defer lc.Close()

	require.NoError(t, remote.Set(ctx, "p", point{X: 7}, 0))

	var p point
	require.NoError(t, lc.Get(ctx, "p", &p))
	assert.Equal(t, 7, p.X)

	// served from L1 after the remote copy is gone
	require.NoError(t, remote.Delete(ctx, "p"))
	p = point{}
	require.NoError(t, lc.Get(ctx, "p", &p))
	assert.Equal(t, 7, p.X)

	require.NoError(t, lc.Delete(ctx, "p"))
	assert.ErrorIs(t, lc.Get(ctx, "p", &p), ErrCacheMiss)
}

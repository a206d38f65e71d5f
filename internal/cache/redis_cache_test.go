package cache

import (
	"context"
	"testing"
	"time"

	"go-stock-ledger/internal/model"
	"go-stock-ledger/pkg/unitgraph"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedisCache(t *testing.T) (*RedisGraphCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisGraphCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute, zap.NewNop())
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisGraphCache_SetGetInvalidate(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()
	scope := model.NewScope(uuid.New(), uuid.New())
	kg, g := uuid.New(), uuid.New()

	_, err := c.Get(ctx, scope)
	assert.ErrorIs(t, err, ErrCacheMiss)

	graph, err := unitgraph.New([]unitgraph.Edge{{From: kg, To: g, Rate: 1000}})
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, scope, graph))
	assert.True(t, mr.Exists(key(scope)))
	assert.Equal(t, time.Minute, mr.TTL(key(scope)))

	cached, err := c.Get(ctx, scope)
	require.NoError(t, err)
	rate, ok := cached.Rate(g, kg)
	assert.True(t, ok)
	assert.InDelta(t, 0.001, rate, 1e-15)

	require.NoError(t, c.Invalidate(ctx, scope))
	_, err = c.Get(ctx, scope)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisGraphCache_Expires(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()
	scope := model.NewScope(uuid.New(), uuid.New())

	graph, err := unitgraph.New(nil)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, scope, graph))

	mr.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, scope)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisGraphCache_CorruptEntryIsDropped(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()
	scope := model.NewScope(uuid.New(), uuid.New())

	require.NoError(t, mr.Set(key(scope), "not msgpack"))

	_, err := c.Get(ctx, scope)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.False(t, mr.Exists(key(scope)))
}

func TestRedisGraphCache_ServerDown(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()
	scope := model.NewScope(uuid.New(), uuid.New())
	mr.Close()

	_, err := c.Get(ctx, scope)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.Error(t, c.Invalidate(ctx, scope))
}

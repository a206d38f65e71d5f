package cache

import (
	"context"
	"testing"
	"time"

	"go-stock-ledger/internal/config"
	"go-stock-ledger/internal/model"
	"go-stock-ledger/pkg/unitgraph"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryGraphCache_SetGetInvalidate(t *testing.T) {
	c := NewMemoryGraphCache(time.Minute)
	ctx := context.Background()
	scope := model.NewScope(uuid.New(), uuid.New())

	_, err := c.Get(ctx, scope)
	assert.ErrorIs(t, err, ErrCacheMiss)

	g, err := unitgraph.New([]unitgraph.Edge{{From: uuid.New(), To: uuid.New(), Rate: 4}})
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, scope, g))

	got, err := c.Get(ctx, scope)
	require.NoError(t, err)
	assert.Same(t, g, got)

	// Scopes sharing a product but not a user are separate entries.
	_, err = c.Get(ctx, model.NewScope(scope.ProductID, uuid.New()))
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Invalidate(ctx, scope))
	_, err = c.Get(ctx, scope)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryGraphCache_Expires(t *testing.T) {
	c := NewMemoryGraphCache(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()
	scope := model.NewScope(uuid.New(), uuid.New())

	g, _ := unitgraph.New(nil)
	require.NoError(t, c.Set(ctx, scope, g))

	now = now.Add(2 * time.Minute)
	_, err := c.Get(ctx, scope)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestEdgeCodec_RoundTripPreservesOrder(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	g, err := unitgraph.New([]unitgraph.Edge{{From: b, To: c, Rate: 12}, {From: a, To: b, Rate: 0.5}})
	require.NoError(t, err)

	raw, err := encodeEdges(g)
	require.NoError(t, err)
	decoded, err := decodeEdges(raw)
	require.NoError(t, err)

	assert.Equal(t, g.Edges(), decoded.Edges())
	rate, ok := decoded.Rate(a, c)
	assert.True(t, ok)
	assert.InDelta(t, 6, rate, 1e-12)

	_, err = decodeEdges([]byte{0xc1})
	assert.Error(t, err)
}

func TestNewGraphCache_FallsBackWithoutRedis(t *testing.T) {
	c := NewGraphCache(&config.Config{GraphCacheTTL: time.Minute}, zap.NewNop())
	_, ok := c.(*MemoryGraphCache)
	assert.True(t, ok)
}

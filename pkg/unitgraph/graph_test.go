package unitgraph

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRate_Identity(t *testing.T) {
	g, err := New(nil)
	require.NoError(t, err)

	u := uuid.New()
	rate, ok := g.Rate(u, u)

	assert.True(t, ok)
	assert.Equal(t, 1.0, rate)

	q, ok := g.Convert(42.5, u, u)
	assert.True(t, ok)
	assert.Equal(t, 42.5, q)
}

func TestRate_DirectAndInverse(t *testing.T) {
	kg, g := uuid.New(), uuid.New()
	graph, err := New([]Edge{{From: kg, To: g, Rate: 1000}})
	require.NoError(t, err)

	rate, ok := graph.Rate(kg, g)
	assert.True(t, ok)
	assert.Equal(t, 1000.0, rate)

	rate, ok = graph.Rate(g, kg)
	assert.True(t, ok)
	assert.InDelta(t, 0.001, rate, 1e-15)

	there, _ := graph.Convert(3.7, kg, g)
	back, _ := graph.Convert(there, g, kg)
	assert.InDelta(t, 3.7, back, 1e-9)
}

func TestRate_Transitive(t *testing.T) {
	crate, box, piece := uuid.New(), uuid.New(), uuid.New()
	graph, err := New([]Edge{
		{From: crate, To: box, Rate: 4},
		{From: box, To: piece, Rate: 12},
	})
	require.NoError(t, err)

	rate, ok := graph.Rate(crate, piece)
	assert.True(t, ok)
	assert.InDelta(t, 48, rate, 1e-9)

	rate, ok = graph.Rate(piece, crate)
	assert.True(t, ok)
	assert.InDelta(t, 1.0/48, rate, 1e-12)
}

func TestRate_PrefersFewestHops(t *testing.T) {
	a, b, c, d, e := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()
	// The long path is listed first so only hop count can make the direct edge win.
	graph, err := New([]Edge{
		{From: a, To: b, Rate: 2},
		{From: b, To: d, Rate: 3},
		{From: d, To: c, Rate: 5},
		{From: a, To: c, Rate: 7},
		{From: e, To: c, Rate: 1},
	})
	require.NoError(t, err)

	rate, ok := graph.Rate(a, c)
	assert.True(t, ok)
	assert.Equal(t, 7.0, rate)
}

func TestRate_TieBrokenByEdgeOrder(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	// Two 2-hop paths a-b-d and a-c-d with inconsistent rates.
	edges := []Edge{
		{From: a, To: b, Rate: 2},
		{From: a, To: c, Rate: 3},
		{From: b, To: d, Rate: 10},
		{From: c, To: d, Rate: 10},
	}
	graph, err := New(edges)
	require.NoError(t, err)

	rate, ok := graph.Rate(a, d)
	assert.True(t, ok)
	assert.Equal(t, 20.0, rate)

	reordered, err := New([]Edge{edges[1], edges[0], edges[3], edges[2]})
	require.NoError(t, err)
	rate, ok = reordered.Rate(a, d)
	assert.True(t, ok)
	assert.Equal(t, 30.0, rate)
}

func TestRate_NoPath(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	graph, err := New([]Edge{
		{From: a, To: b, Rate: 2},
		{From: c, To: d, Rate: 3},
	})
	require.NoError(t, err)

	_, ok := graph.Rate(a, d)
	assert.False(t, ok)

	_, ok = graph.Convert(1, uuid.New(), a)
	assert.False(t, ok)
}

func TestRate_CycleTerminates(t *testing.T) {
	a, b, c, x := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	graph, err := New([]Edge{
		{From: a, To: b, Rate: 2},
		{From: b, To: c, Rate: 2},
		{From: c, To: a, Rate: 0.25},
	})
	require.NoError(t, err)

	_, ok := graph.Rate(a, x)
	assert.False(t, ok)
}

func TestNew_RejectsInvalidRates(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	for _, rate := range []float64{0, -1, math.Inf(1), math.NaN()} {
		_, err := New([]Edge{{From: a, To: b, Rate: rate}})
		assert.ErrorIs(t, err, ErrInvalidRate)
	}
}

func TestEdges_ReturnsCopy(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	graph, err := New([]Edge{{From: a, To: b, Rate: 2}})
	require.NoError(t, err)

	edges := graph.Edges()
	edges[0].Rate = 99

	assert.Equal(t, 2.0, graph.Edges()[0].Rate)
	assert.True(t, graph.Has(a))
	assert.False(t, graph.Has(uuid.New()))
}

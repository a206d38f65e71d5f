package unitgraph

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

var ErrInvalidRate = errors.New("conversion rate must be a positive finite number")

// Edge means: 1 unit of From = Rate units of To.
type Edge struct {
	From uuid.UUID `msgpack:"f" json:"from_unit_id"`
	To   uuid.UUID `msgpack:"t" json:"to_unit_id"`
	Rate float64   `msgpack:"r" json:"rate"`
}

type neighbor struct {
	unit uuid.UUID
	rate float64
}

// Graph is an immutable undirected view over a set of conversion edges.
// Every edge (u, v, r) is traversable as u -> v with r and v -> u with 1/r.
type Graph struct {
	edges []Edge
	adj   map[uuid.UUID][]neighbor
}

// New builds a graph from edges in the given order. Neighbor order follows edge
// order, which makes hop-count ties resolve deterministically.
func New(edges []Edge) (*Graph, error) {
	g := &Graph{
		edges: make([]Edge, 0, len(edges)),
		adj:   make(map[uuid.UUID][]neighbor),
	}
	for _, e := range edges {
		if !ValidRate(e.Rate) {
			return nil, fmt.Errorf("%w: %s -> %s = %v", ErrInvalidRate, e.From, e.To, e.Rate)
		}
		g.edges = append(g.edges, e)
		g.adj[e.From] = append(g.adj[e.From], neighbor{unit: e.To, rate: e.Rate})
		g.adj[e.To] = append(g.adj[e.To], neighbor{unit: e.From, rate: 1 / e.Rate})
	}
	return g, nil
}

// ValidRate reports whether r can be used as a conversion rate.
func ValidRate(r float64) bool {
	return r > 0 && !math.IsInf(r, 0) && !math.IsNaN(r)
}

// Edges returns a copy of the edges the graph was built from.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Has reports whether the unit appears in at least one edge.
func (g *Graph) Has(unit uuid.UUID) bool {
	_, ok := g.adj[unit]
	return ok
}

// Rate returns how many units of `to` equal one unit of `from`, composed along
// the path with the fewest hops. The second result is false when no path exists.
func (g *Graph) Rate(from, to uuid.UUID) (float64, bool) {
	if from == to {
		return 1, true
	}

	type item struct {
		unit uuid.UUID
		rate float64
	}
	queue := []item{{unit: from, rate: 1}}
	visited := make(map[uuid.UUID]bool)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.unit == to {
			return cur.rate, true
		}
		// Marked on dequeue: a node may sit in the queue more than once, only the
		// first-dequeued copy expands.
		if visited[cur.unit] {
			continue
		}
		visited[cur.unit] = true

		for _, n := range g.adj[cur.unit] {
			if !visited[n.unit] {
				queue = append(queue, item{unit: n.unit, rate: cur.rate * n.rate})
			}
		}
	}
	return 0, false
}

// Convert expresses quantity (in `from`) in units of `to`.
func (g *Graph) Convert(quantity float64, from, to uuid.UUID) (float64, bool) {
	rate, ok := g.Rate(from, to)
	if !ok {
		return 0, false
	}
	return quantity * rate, true
}

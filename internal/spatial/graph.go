package spatial

import (
	"math"

	"github.com/rotisserie/eris"
)

// Sentinel errors returned by Graph mutation.
var (
	ErrNodeOutOfRange = eris.New("spatial: node index out of range")
	ErrSelfEdge       = eris.New("spatial: self edge")
	ErrDuplicateEdge  = eris.New("spatial: duplicate edge")
	ErrInvalidWeight  = eris.New("spatial: invalid edge weight")
)

// Edge is an undirected weighted edge. From is always less than To.
type Edge struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Weight float64 `json:"weight_km"`
}

// Neighbor is one entry of a node's adjacency list.
type Neighbor struct {
	Node   int
	Weight float64
}

// Graph is an undirected, weighted, simple graph whose nodes carry a
// Coordinate. Node indices are dense and start at 0.
//
// A Graph is not safe for concurrent mutation. Once built it may be shared
// read-only across goroutines.
type Graph struct {
	coords []Coordinate
	edges  []Edge
	adj    [][]Neighbor
	pairs  map[[2]int]struct{}
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{pairs: make(map[[2]int]struct{})}
}

// AddNode appends a node and returns its index.
func (g *Graph) AddNode(c Coordinate) int {
	g.coords = append(g.coords, c)
	g.adj = append(g.adj, nil)
	return len(g.coords) - 1
}

// AddEdge joins i and j with the given weight. Neighbor lists keep edge
// insertion order.
func (g *Graph) AddEdge(i, j int, weight float64) error {
	if i < 0 || j < 0 || i >= len(g.coords) || j >= len(g.coords) {
		return eris.Wrapf(ErrNodeOutOfRange, "spatial: add edge (%d, %d) with %d nodes", i, j, len(g.coords))
	}
	if i == j {
		return eris.Wrapf(ErrSelfEdge, "spatial: add edge (%d, %d)", i, j)
	}
	if math.IsNaN(weight) || weight < 0 {
		return eris.Wrapf(ErrInvalidWeight, "spatial: add edge (%d, %d) weight %v", i, j, weight)
	}
	if i > j {
		i, j = j, i
	}
	key := [2]int{i, j}
	if _, ok := g.pairs[key]; ok {
		return eris.Wrapf(ErrDuplicateEdge, "spatial: add edge (%d, %d)", i, j)
	}
	g.appendEdge(Edge{From: i, To: j, Weight: weight})
	return nil
}

// appendEdge records e without validation. The builder only produces pairs
// with From < To, each once.
func (g *Graph) appendEdge(e Edge) {
	g.pairs[[2]int{e.From, e.To}] = struct{}{}
	g.edges = append(g.edges, e)
	g.adj[e.From] = append(g.adj[e.From], Neighbor{Node: e.To, Weight: e.Weight})
	g.adj[e.To] = append(g.adj[e.To], Neighbor{Node: e.From, Weight: e.Weight})
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.coords) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Nodes returns the node indices in ascending order.
func (g *Graph) Nodes() []int {
	out := make([]int, len(g.coords))
	for i := range out {
		out[i] = i
	}
	return out
}

// Edges returns the edges in insertion order. The slice must not be modified.
func (g *Graph) Edges() []Edge { return g.edges }

// Neighbors returns the adjacency list of node i in edge insertion order.
// It returns nil for an unknown index. The slice must not be modified.
func (g *Graph) Neighbors(i int) []Neighbor {
	if i < 0 || i >= len(g.adj) {
		return nil
	}
	return g.adj[i]
}

// Degree returns the number of edges incident to node i.
func (g *Graph) Degree(i int) int { return len(g.Neighbors(i)) }

// Coordinate returns the coordinate of node i.
func (g *Graph) Coordinate(i int) (Coordinate, bool) {
	if i < 0 || i >= len(g.coords) {
		return Coordinate{}, false
	}
	return g.coords[i], true
}

// HasEdge reports whether i and j are adjacent.
func (g *Graph) HasEdge(i, j int) bool {
	if i > j {
		i, j = j, i
	}
	_, ok := g.pairs[[2]int{i, j}]
	return ok
}

// Package graph provides a concrete weighted graph implementing the
// gocanon capability contract, plus an expression grammar for building
// graphs from strings.
package graph

import (
	"fmt"
	"io"
	"sync"

	"github.com/structura-systems/gocanon"
	"github.com/structura-systems/gocanon/libcanon"
)

// Graph is a general weighted graph over dense vertex indices.  Edges may
// be directed (AddArc) or undirected (AddEdge); weights accumulate, so a
// doubled edge is an edge of weight 2.
type Graph struct {
	colors []int64
	w      map[uint64]int64
}

// NewGraph returns a cleared Graph from the shared pool.
func NewGraph() *Graph {
	g := graphPool.Get().(*Graph)
	g.Init()
	return g
}

// Reclaim recycles this Graph instance into a pool for reuse.
// Caller asserts that no more references to this instance will persist.
func (g *Graph) Reclaim() {
	if g != nil {
		graphPool.Put(g)
	}
}

var graphPool = sync.Pool{
	New: func() interface{} {
		return &Graph{
			w: make(map[uint64]int64),
		}
	},
}

func (g *Graph) Init() {
	g.colors = g.colors[:0]
	for k := range g.w {
		delete(g.w, k)
	}
}

func edgeKey(a, b int) uint64 {
	return uint64(uint32(a))<<32 | uint64(uint32(b))
}

// AddVertex appends a vertex with the given initial color, returning its
// index.
func (g *Graph) AddVertex(color int64) int {
	g.colors = append(g.colors, color)
	return len(g.colors) - 1
}

// AddArc accumulates a directed edge weight from a to b.
func (g *Graph) AddArc(a, b int, weight int64) {
	g.w[edgeKey(a, b)] += weight
}

// AddEdge accumulates an undirected edge weight between a and b.
func (g *Graph) AddEdge(a, b int, weight int64) {
	g.AddArc(a, b, weight)
	if a != b {
		g.AddArc(b, a, weight)
	}
}

// BumpColor adds delta to the initial color of vertex v.
func (g *Graph) BumpColor(v int, delta int64) {
	g.colors[v] += delta
}

func (g *Graph) VertexCount() int {
	return len(g.colors)
}

func (g *Graph) VertexColor(v int) int64 {
	return g.colors[v]
}

func (g *Graph) EdgeWeight(a, b int) int64 {
	return g.w[edgeKey(a, b)]
}

// Relabel returns a new Graph with every vertex v moved to position
// perm[v], preserving colors and weights.  The result is isomorphic to g
// by construction.
func (g *Graph) Relabel(perm gocanon.Perm) *Graph {
	out := NewGraph()
	out.colors = append(out.colors, make([]int64, len(g.colors))...)
	for v, c := range g.colors {
		out.colors[perm[v]] = c
	}
	for k, weight := range g.w {
		a, b := int(k>>32), int(uint32(k))
		out.w[edgeKey(int(perm[a]), int(perm[b]))] = weight
	}
	return out
}

// Canonicalize is a convenience wrapper over the engine.
func (g *Graph) Canonicalize(opts gocanon.Opts) (gocanon.Result, error) {
	return libcanon.Canonicalize(g, opts)
}

func (g *Graph) WriteAsString(out io.Writer) {
	fmt.Fprintf(out, "v=%d", g.VertexCount())
	for a := 0; a < g.VertexCount(); a++ {
		for b := 0; b < g.VertexCount(); b++ {
			if wt := g.EdgeWeight(a, b); wt != 0 && a <= b {
				fmt.Fprintf(out, ",%d-%d:%d", a+1, b+1, wt)
			}
		}
	}
}

package libcanon

import "github.com/structura-systems/gocanon"

// probeSwap reports whether the transposition (v w) is an automorphism of
// s, checked directly against the structure in O(n).  This is the cheap
// implicit-automorphism test that collapses fully symmetric cells (a
// complete graph canonicalizes with a single certificate build).
func probeSwap(s gocanon.Structure, v, w int32) bool {
	a, b := int(v), int(w)
	if s.VertexColor(a) != s.VertexColor(b) {
		return false
	}
	if s.EdgeWeight(a, a) != s.EdgeWeight(b, b) {
		return false
	}
	if s.EdgeWeight(a, b) != s.EdgeWeight(b, a) {
		return false
	}
	n := s.VertexCount()
	for x := 0; x < n; x++ {
		if x == a || x == b {
			continue
		}
		if s.EdgeWeight(a, x) != s.EdgeWeight(b, x) {
			return false
		}
		if s.EdgeWeight(x, a) != s.EdgeWeight(x, b) {
			return false
		}
	}
	return true
}

// orbitSet is a union-find over elements, merged under the discovered
// automorphisms that fix a given individualization path pointwise.  Two
// target-cell elements in the same orbit root equivalent subtrees, so only
// one needs exploring.
type orbitSet struct {
	parent []int32
	gen    int // number of shared automorphisms already absorbed
}

func newOrbitSet(n int) *orbitSet {
	o := &orbitSet{parent: make([]int32, n)}
	for i := range o.parent {
		o.parent[i] = int32(i)
	}
	return o
}

func (o *orbitSet) find(e int32) int32 {
	for o.parent[e] != e {
		o.parent[e] = o.parent[o.parent[e]]
		e = o.parent[e]
	}
	return e
}

func (o *orbitSet) union(a, b int32) {
	ra, rb := o.find(a), o.find(b)
	if ra != rb {
		o.parent[rb] = ra
	}
}

func (o *orbitSet) same(a, b int32) bool {
	return o.find(a) == o.find(b)
}

// absorb folds in any automorphisms discovered since the last call that
// fix the path pointwise, merging orbits of the given cell's elements.
func (o *orbitSet) absorb(sh *shared, path []int32, cell []int32) {
	total := sh.autoCount()
	if total == o.gen {
		return
	}

	sh.autosMu.RLock()
	fresh := sh.autos[o.gen:total]
	for _, g := range fresh {
		if !g.Fixes(path) {
			continue
		}
		for _, e := range cell {
			ge := g[e]
			if ge != e {
				o.union(e, ge)
			}
		}
	}
	sh.autosMu.RUnlock()
	o.gen = total
}

package gocanon

// Structure is the capability contract a caller's type must satisfy for
// canonicalization.  Elements are dense zero-based indices.
//
// The engine assumes a static structure for the duration of one
// normalization call: the same (a, b) pair must always report the same
// weight and the same vertex the same color.  Violating this is undefined
// behavior, not an engine error.
type Structure interface {

	// VertexCount returns the number of elements in the structure.
	VertexCount() int

	// VertexColor returns the initial color of the given element.
	// Colors must be invariant under isomorphism (e.g. a vertex type),
	// never derived from the element's index.
	VertexColor(v int) int64

	// EdgeWeight returns the local edge description between two elements:
	// 0 for non-adjacent, any other value for an edge of that weight.
	// EdgeWeight(a, b) and EdgeWeight(b, a) may differ (directed edges).
	// The total order over local edge descriptions is int64 order.
	EdgeWeight(a, b int) int64
}

// Result is the outcome of one canonicalization.
type Result struct {

	// Cert is the canonical certificate: isomorphic structures yield
	// bit-for-bit identical certificates.
	Cert Cert

	// Perm maps each original element index to its canonical position.
	// Applying Perm to the structure and rebuilding the certificate
	// directly reproduces Cert exactly.
	Perm Perm

	// Autos holds automorphisms discovered during the search, each a
	// verified structure-preserving permutation.  Not necessarily a
	// complete generating set, and empty for asymmetric structures.
	Autos []Perm

	// Stats reports search effort for this call.
	Stats Stats
}

// Stats counts search-tree work performed during one canonicalization.
type Stats struct {
	Nodes      int64 // search tree nodes expanded
	Leaves     int64 // discrete partitions reached
	CertBuilds int64 // certificates constructed (== Leaves)
	AutosFound int64 // automorphisms discovered
	Pruned     int64 // branches skipped by automorphism pruning
}

// Opts specifies params for one canonicalization call.
type Opts struct {

	// MaxSteps bounds the number of search tree nodes expanded.
	// Zero means unbounded.  When the budget is exhausted the engine
	// returns ErrBudgetExceeded rather than a partial answer.
	MaxSteps int64

	// Parallel explores independent top-level branches concurrently.
	// The certificate is byte-identical to serial execution; the
	// permutation may differ by an automorphism.
	Parallel bool
}

// IsAutomorphism reports whether g is a structure-preserving permutation
// of s: colors and edge weights are preserved exactly under relabeling.
func IsAutomorphism(s Structure, g Perm) bool {
	n := s.VertexCount()
	if len(g) != n {
		return false
	}
	for u := 0; u < n; u++ {
		if s.VertexColor(int(g[u])) != s.VertexColor(u) {
			return false
		}
		for v := 0; v < n; v++ {
			if s.EdgeWeight(int(g[u]), int(g[v])) != s.EdgeWeight(u, v) {
				return false
			}
		}
	}
	return true
}

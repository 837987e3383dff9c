package libcanon

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/structura-systems/gocanon"
)

// Fingerprint computes a cheap isomorphism invariant of s without running
// the search: a hash over the equitable partition's cell sizes, colors,
// and quotient adjacency.  Distinct fingerprints guarantee distinct
// canonical forms; equal fingerprints prove nothing and must be resolved
// by certificate comparison.
func Fingerprint(s gocanon.Structure) uint64 {
	n := s.VertexCount()

	h := xxhash.New()
	var scrap [binary.MaxVarintLen64]byte
	put := func(v int64) {
		sz := binary.PutVarint(scrap[:], v)
		h.Write(scrap[:sz])
	}

	put(int64(n))
	if n == 0 {
		return h.Sum64()
	}

	colors := make([]int64, n)
	for v := 0; v < n; v++ {
		colors[v] = s.VertexColor(v)
	}
	p := NewPartition(colors)
	Refine(s, p)

	// Equitable means adjacency into any cell is constant across a cell,
	// so one representative element per cell captures the whole quotient.
	starts := p.cellStarts(nil)
	for _, c := range starts {
		first := int(p.CellElems(c)[0])
		put(int64(p.cellSize[c]))
		put(colors[first])
		for _, d := range starts {
			out, in := int64(0), int64(0)
			for _, x := range p.CellElems(d) {
				out += s.EdgeWeight(first, int(x))
				in += s.EdgeWeight(int(x), first)
			}
			put(out)
			put(in)
		}
	}
	return h.Sum64()
}

// FingerprintKey renders a fingerprint as a fixed-width big-endian key so
// fingerprints sort naturally in an LSM store.
func FingerprintKey(fp uint64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], fp)
	return key[:]
}

// StateKey is the exact encoding of s under its given labeling: the
// certificate built with the identity permutation.  Cheap (no search) and
// exact, it disambiguates fingerprint collisions in the cache.
func StateKey(s gocanon.Structure) []byte {
	return gocanon.BuildCert(s, gocanon.IdentityPerm(s.VertexCount()))
}

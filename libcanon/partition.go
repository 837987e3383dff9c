package libcanon

import (
	"fmt"
	"sort"

	"github.com/structura-systems/gocanon"
)

// Partition is an ordered partition of elements 0..n-1 into color cells.
// Cell order is significant and preserved across all mutations.
//
// Representation: elements laid out in one flat array in partition order,
// with per-position cell bookkeeping.  A cell is identified by the index of
// its first position; splitting a cell never moves any other cell, so cell
// identifiers stay stable across refinement.
type Partition struct {
	order     []int32 // elements in partition order
	pos       []int32 // pos[e] = index of e in order
	cellStart []int32 // cellStart[i] = start position of the cell covering position i
	cellSize  []int32 // indexed by cell start position; 0 elsewhere
	numCells  int32
}

// NewPartition builds the initial partition from per-element colors: one
// cell per distinct color, cells ordered by ascending color, elements
// within a cell ordered by ascending index.
func NewPartition(colors []int64) *Partition {
	n := int32(len(colors))
	p := &Partition{
		order:     make([]int32, n),
		pos:       make([]int32, n),
		cellStart: make([]int32, n),
		cellSize:  make([]int32, n),
	}
	for i := int32(0); i < n; i++ {
		p.order[i] = i
	}
	sort.SliceStable(p.order, func(i, j int) bool {
		return colors[p.order[i]] < colors[p.order[j]]
	})

	start := int32(0)
	for i := int32(0); i < n; i++ {
		p.pos[p.order[i]] = i
		if i > 0 && colors[p.order[i]] != colors[p.order[i-1]] {
			p.cellSize[start] = i - start
			start = i
		}
		p.cellStart[i] = start
	}
	if n > 0 {
		p.cellSize[start] = n - start
	}
	p.numCells = 0
	for s := int32(0); s < n; s += p.cellSize[s] {
		p.numCells++
	}
	return p
}

func (p *Partition) Len() int {
	return len(p.order)
}

func (p *Partition) CellCount() int {
	return int(p.numCells)
}

// IsDiscrete reports whether every cell is a singleton.
func (p *Partition) IsDiscrete() bool {
	return p.numCells == int32(len(p.order))
}

// CellOf returns the start position of the cell containing element e.
func (p *Partition) CellOf(e int32) int32 {
	return p.cellStart[p.pos[e]]
}

// CellElems returns the elements of the cell starting at the given
// position, in cell order.  The slice aliases the partition.
func (p *Partition) CellElems(start int32) []int32 {
	return p.order[start : start+p.cellSize[start]]
}

// FirstNonSingleton returns the start of the first cell of size > 1 in
// partition order, or -1 if the partition is discrete.
func (p *Partition) FirstNonSingleton() int32 {
	n := int32(len(p.order))
	for s := int32(0); s < n; s += p.cellSize[s] {
		if p.cellSize[s] > 1 {
			return s
		}
	}
	return -1
}

// cellStarts appends the start positions of all cells, in partition order.
func (p *Partition) cellStarts(buf []int32) []int32 {
	n := int32(len(p.order))
	for s := int32(0); s < n; s += p.cellSize[s] {
		buf = append(buf, s)
	}
	return buf
}

func (p *Partition) Clone() *Partition {
	clone := &Partition{
		order:     append([]int32(nil), p.order...),
		pos:       append([]int32(nil), p.pos...),
		cellStart: append([]int32(nil), p.cellStart...),
		cellSize:  append([]int32(nil), p.cellSize...),
		numCells:  p.numCells,
	}
	return clone
}

// Individualize splits element e out of its cell into a new singleton cell
// placed immediately before the remainder of the original cell.
// The cell containing e must not already be a singleton.
func (p *Partition) Individualize(e int32) {
	s := p.CellOf(e)
	k := p.cellSize[s]
	if k < 2 {
		panic("individualize on singleton cell")
	}

	// Swap e to the front of its cell
	pe := p.pos[e]
	other := p.order[s]
	p.order[s], p.order[pe] = e, other
	p.pos[e], p.pos[other] = s, pe

	p.cellSize[s] = 1
	p.cellSize[s+1] = k - 1
	for i := s + 1; i < s+k; i++ {
		p.cellStart[i] = s + 1
	}
	p.numCells++
}

// splitCell reorders the cell at start stably by ascending key and cuts it
// at every key change.  keys is indexed parallel to CellElems(start).
// Returns the start positions of the resulting fragments.
func (p *Partition) splitCell(start int32, keys []refKey) []int32 {
	size := p.cellSize[start]
	elems := p.order[start : start+size]

	idx := make([]int32, size)
	for i := range idx {
		idx[i] = int32(i)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]].less(keys[idx[b]])
	})

	sorted := make([]int32, size)
	sortedKeys := make([]refKey, size)
	for i, j := range idx {
		sorted[i] = elems[j]
		sortedKeys[i] = keys[j]
	}
	copy(elems, sorted)

	var frags []int32
	fragStart := start
	for i := int32(0); i < size; i++ {
		if i > 0 && sortedKeys[i] != sortedKeys[i-1] {
			p.cellSize[fragStart] = start + i - fragStart
			fragStart = start + i
			p.numCells++
		}
		p.pos[p.order[start+i]] = start + i
		p.cellStart[start+i] = fragStart
		if fragStart == start+i {
			frags = append(frags, fragStart)
		}
	}
	p.cellSize[fragStart] = start + size - fragStart
	return frags
}

// Perm returns the total order induced by a discrete partition as a
// permutation from element index to canonical position.
func (p *Partition) Perm() gocanon.Perm {
	if !p.IsDiscrete() {
		panic("Perm on non-discrete partition")
	}
	return append(gocanon.Perm(nil), p.pos...)
}

// check verifies the one-class-per-element invariant and the internal
// bookkeeping.  A breach is a fatal defect: computation must stop rather
// than produce a plausible-looking wrong answer.
func (p *Partition) check() {
	n := int32(len(p.order))
	seen := make([]bool, n)
	for i := int32(0); i < n; i++ {
		e := p.order[i]
		if e < 0 || e >= n || seen[e] {
			panic(fmt.Sprintf("partition invariant breach: element %d at position %d", e, i))
		}
		seen[e] = true
		if p.pos[e] != i {
			panic(fmt.Sprintf("partition invariant breach: pos[%d]=%d, want %d", e, p.pos[e], i))
		}
	}
	cells := int32(0)
	for s := int32(0); s < n; s += p.cellSize[s] {
		if p.cellSize[s] <= 0 {
			panic(fmt.Sprintf("partition invariant breach: cell at %d has size %d", s, p.cellSize[s]))
		}
		for i := s; i < s+p.cellSize[s]; i++ {
			if p.cellStart[i] != s {
				panic(fmt.Sprintf("partition invariant breach: cellStart[%d]=%d, want %d", i, p.cellStart[i], s))
			}
		}
		cells++
	}
	if cells != p.numCells {
		panic(fmt.Sprintf("partition invariant breach: counted %d cells, tracked %d", cells, p.numCells))
	}
}

package libcanon

import "github.com/structura-systems/gocanon"

// refKey distinguishes elements of one cell by their adjacency into a
// splitter cell.  Weight sums in both directions cover directed and
// weighted structures; this is coarser than the full weight multiset but
// still sound -- a coarser key only defers splits to the search, it never
// forces a wrong one.
type refKey struct {
	out int64
	in  int64
}

func (k refKey) less(o refKey) bool {
	if k.out != o.out {
		return k.out < o.out
	}
	return k.in < o.in
}

// Refine splits cells of p until the partition is equitable: no element
// pair within one cell is distinguishable by adjacency into any other
// cell.  Work-queue driven; after a split, all fragments but the largest
// re-enter the queue, which keeps refinement near its optimal amortized
// cost.  The structure is never mutated.
func Refine(s gocanon.Structure, p *Partition) {
	n := int32(p.Len())
	if n == 0 {
		return
	}

	queue := make([]int32, 0, n)
	inQueue := make([]bool, n)
	queue = p.cellStarts(queue)
	for _, c := range queue {
		inQueue[c] = true
	}

	var splitter, starts []int32
	var keys []refKey

	for qi := 0; qi < len(queue); qi++ {
		c := queue[qi]
		inQueue[c] = false

		// Snapshot the splitter's membership: splitting C itself while
		// it drives later splits must not change the counts in flight.
		splitter = append(splitter[:0], p.CellElems(c)...)

		starts = p.cellStarts(starts[:0])
		for _, d := range starts {
			size := p.cellSize[d]
			if size < 2 {
				continue
			}

			elems := p.CellElems(d)
			keys = keys[:0]
			uniform := true
			for i, e := range elems {
				k := refKey{}
				for _, x := range splitter {
					k.out += s.EdgeWeight(int(e), int(x))
					k.in += s.EdgeWeight(int(x), int(e))
				}
				keys = append(keys, k)
				if i > 0 && k != keys[0] {
					uniform = false
				}
			}
			if uniform {
				continue
			}

			frags := p.splitCell(d, keys)

			if inQueue[d] {
				// d is still queued as the first fragment; queue the rest too
				for _, f := range frags {
					if !inQueue[f] {
						inQueue[f] = true
						queue = append(queue, f)
					}
				}
			} else {
				largest := frags[0]
				for _, f := range frags {
					if p.cellSize[f] > p.cellSize[largest] {
						largest = f
					}
				}
				for _, f := range frags {
					if f != largest {
						inQueue[f] = true
						queue = append(queue, f)
					}
				}
			}
		}
	}
}

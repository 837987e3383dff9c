package libcanon

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/structura-systems/gocanon"
)

// Canonicalize computes the canonical form of s: the lexicographically
// smallest certificate reachable by any relabeling consistent with the
// initial coloring, plus the permutation that produces it.
//
// Tie-break convention: when several leaves reach the minimal certificate,
// the permutation of the first such leaf in deterministic DFS order is
// retained; later equal leaves only contribute automorphisms.
func Canonicalize(s gocanon.Structure, opts gocanon.Opts) (gocanon.Result, error) {
	if s == nil {
		return gocanon.Result{}, gocanon.ErrNilStructure
	}

	n := s.VertexCount()
	if n == 0 {
		// Degenerate empty certificate, by definition not a failure
		return gocanon.Result{
			Cert: gocanon.BuildCert(s, nil),
			Perm: gocanon.Perm{},
		}, nil
	}

	colors := make([]int64, n)
	for v := 0; v < n; v++ {
		colors[v] = s.VertexColor(v)
	}
	root := NewPartition(colors)
	Refine(s, root)

	sh := &shared{maxSteps: opts.MaxSteps}

	if root.IsDiscrete() {
		ex := &explorer{s: s, sh: sh}
		ex.leaf(root, 0)
		return sh.result(ex.stats), nil
	}

	if opts.Parallel {
		if err := exploreParallel(s, root, sh); err != nil {
			return gocanon.Result{}, err
		}
	} else {
		ex := &explorer{s: s, sh: sh}
		if err := ex.run(root, 0); err != nil {
			return gocanon.Result{}, err
		}
		return sh.result(ex.stats), nil
	}
	return sh.result(sh.stats), nil
}

// shared is the only state crossed by parallel branches: the best-so-far
// certificate and the discovered automorphism set, each behind its own
// lock, plus the global step budget.
type shared struct {
	mu       sync.Mutex
	best     gocanon.Cert
	bestPerm gocanon.Perm
	bestRank int

	autosMu sync.RWMutex
	autos   []gocanon.Perm

	steps    atomic.Int64
	maxSteps int64

	statsMu sync.Mutex
	stats   gocanon.Stats
}

func (sh *shared) result(stats gocanon.Stats) gocanon.Result {
	return gocanon.Result{
		Cert:  sh.best,
		Perm:  sh.bestPerm,
		Autos: sh.autos,
		Stats: stats,
	}
}

func (sh *shared) mergeStats(stats gocanon.Stats) {
	sh.statsMu.Lock()
	sh.stats.Nodes += stats.Nodes
	sh.stats.Leaves += stats.Leaves
	sh.stats.CertBuilds += stats.CertBuilds
	sh.stats.AutosFound += stats.AutosFound
	sh.stats.Pruned += stats.Pruned
	sh.statsMu.Unlock()
}

func (sh *shared) addAuto(g gocanon.Perm) {
	sh.autosMu.Lock()
	sh.autos = append(sh.autos, g)
	sh.autosMu.Unlock()
}

func (sh *shared) autoCount() int {
	sh.autosMu.RLock()
	n := len(sh.autos)
	sh.autosMu.RUnlock()
	return n
}

// frame is one node of the search tree: a partition snapshot plus the
// branch choices remaining in its target cell.
type frame struct {
	p        *Partition
	cell     []int32 // target cell elements, in cell order
	next     int     // index of the next child to try
	explored []int32 // children already fully explored
	pathMark int     // length of the path at this node
	orbit    *orbitSet
}

type explorer struct {
	s     gocanon.Structure
	sh    *shared
	path  []int32 // individualized elements, root to current node
	stack []frame
	stats gocanon.Stats
}

// run explores the subtree rooted at the given refined partition with an
// explicit stack (bounded memory, no native recursion).
func (ex *explorer) run(p *Partition, rank int) error {
	ex.push(p)

	for len(ex.stack) > 0 {
		f := &ex.stack[len(ex.stack)-1]

		if f.next >= len(f.cell) {
			ex.path = ex.path[:f.pathMark]
			ex.stack = ex.stack[:len(ex.stack)-1]
			continue
		}

		e := f.cell[f.next]
		f.next++

		if ex.pruneChild(f, e) {
			ex.stats.Pruned++
			continue
		}

		if ex.sh.maxSteps > 0 && ex.sh.steps.Add(1) > ex.sh.maxSteps {
			return gocanon.ErrBudgetExceeded
		}
		ex.stats.Nodes++

		child := f.p.Clone()
		child.Individualize(e)
		Refine(ex.s, child)
		f.explored = append(f.explored, e)

		if child.IsDiscrete() {
			ex.leaf(child, rank)
			continue
		}

		ex.path = append(ex.path, e)
		ex.push(child)
	}
	return nil
}

func (ex *explorer) push(p *Partition) {
	target := p.FirstNonSingleton()
	if target < 0 {
		panic("push on discrete partition")
	}
	ex.stack = append(ex.stack, frame{
		p:        p,
		cell:     append([]int32(nil), p.CellElems(target)...),
		pathMark: len(ex.path),
	})
}

// pruneChild reports whether the branch individualizing e is provably
// equivalent to a sibling already explored.  Soundness: every pruning
// decision is backed by a verified automorphism, which preserves
// certificates exactly, so no strictly better leaf is ever skipped.
func (ex *explorer) pruneChild(f *frame, e int32) bool {
	if len(f.explored) == 0 {
		return false
	}

	// Orbit pruning under discovered automorphisms that fix this node's
	// individualization path pointwise.  Checked before probing: a
	// transposition already on record covers the pair via its orbit, so it
	// is never re-verified or re-appended.
	if f.orbit == nil {
		f.orbit = newOrbitSet(ex.s.VertexCount())
	}
	f.orbit.absorb(ex.sh, ex.path[:f.pathMark], f.cell)
	for _, x := range f.explored {
		if f.orbit.same(x, e) {
			return true
		}
	}

	// Cheap implicit automorphism: if swapping e with an explored sibling
	// preserves the structure, the subtrees are mirror images.
	for _, x := range f.explored {
		if probeSwap(ex.s, x, e) {
			t := gocanon.IdentityPerm(ex.s.VertexCount())
			t[x], t[e] = e, x
			ex.sh.addAuto(t)
			ex.stats.AutosFound++
			return true
		}
	}
	return false
}

// leaf builds the certificate of a discrete partition and folds it into the
// shared best-so-far state.  Equal certificates between two leaves expose
// an automorphism of the structure.
func (ex *explorer) leaf(p *Partition, rank int) {
	perm := p.Perm()
	cert := gocanon.BuildCert(ex.s, perm)
	ex.stats.Leaves++
	ex.stats.CertBuilds++

	var auto gocanon.Perm

	sh := ex.sh
	sh.mu.Lock()
	switch {
	case sh.best == nil:
		sh.best = cert
		sh.bestPerm = perm
		sh.bestRank = rank
	default:
		cmp := cert.Compare(sh.best)
		if cmp < 0 {
			sh.best = cert
			sh.bestPerm = perm
			sh.bestRank = rank
		} else if cmp == 0 {
			auto = perm.Inverse().ComposedWith(sh.bestPerm)
			if rank < sh.bestRank {
				sh.bestPerm = perm
				sh.bestRank = rank
			}
		}
	}
	sh.mu.Unlock()

	if auto != nil && !auto.IsIdentity() {
		sh.addAuto(auto)
		ex.stats.AutosFound++
	}
}

// exploreParallel runs the root's children as independent branches.  Each
// branch owns its partition snapshots; only best-so-far and the
// automorphism set are shared, so the outcome matches serial execution.
func exploreParallel(s gocanon.Structure, root *Partition, sh *shared) error {
	target := root.FirstNonSingleton()
	cell := append([]int32(nil), root.CellElems(target)...)

	// Sibling pruning across branches is resolved up front so workers
	// never race on it: probe pairwise swaps among root children.
	children := cell[:0]
	var explored []int32
	for _, e := range cell {
		swapped := false
		for _, x := range explored {
			if probeSwap(s, x, e) {
				n := s.VertexCount()
				t := gocanon.IdentityPerm(n)
				t[x], t[e] = e, x
				sh.addAuto(t)
				sh.mergeStats(gocanon.Stats{AutosFound: 1, Pruned: 1})
				swapped = true
				break
			}
		}
		if !swapped {
			children = append(children, e)
			explored = append(explored, e)
		}
	}

	var g errgroup.Group
	for rank, e := range children {
		rank, e := rank, e
		g.Go(func() error {
			child := root.Clone()
			child.Individualize(e)
			Refine(s, child)

			ex := &explorer{s: s, sh: sh}
			ex.path = append(ex.path, e)

			var err error
			if child.IsDiscrete() {
				ex.leaf(child, rank)
			} else {
				err = ex.run(child, rank)
			}
			sh.mergeStats(ex.stats)
			return err
		})
	}
	return g.Wait()
}

package graph

import (
	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"
)

// Graph expression syntax, one expression per graph:
//
//	"1-2-3,3-1"   triangle (edge runs chain; "," separates runs)
//	"1=2"         double edge (weight 2)
//	"1~2"         negative edge (weight -1)
//	"1^-2"        vertex 1 gets a color bump per "^" mark
//	"1-2;1-2"     ";" separates disconnected parts (IDs restart per part)
//	"1;1;1"       isolated vertices
type graphExpr struct {
	Parts []*graphPart `parser:"(@@ (\";\" @@)*)?"`
}

type graphPart struct {
	Runs []*edgeRun `parser:"(@@ (\",\" @@)*)?"`
}

type edgeRun struct {
	Start *vtxRef    `parser:"@@"`
	Hops  []*edgeHop `parser:"@@*"`
}

type edgeHop struct {
	Kind string  `parser:"@(\"-\" | \"=\" | \"~\")"`
	End  *vtxRef `parser:"@@"`
}

type vtxRef struct {
	ID    int64  `parser:"@Int"`
	Marks string `parser:"@\"^\"*"`
}

var parseGraphExpr = participle.MustBuild[graphExpr]()

var edgeWeights = map[string]int64{
	"-": 1,
	"=": 2,
	"~": -1,
}

var (
	ErrBadVtxID = errors.New("bad graph vertex ID")
	ErrBadEdge  = errors.New("bad graph edge")
)

// InitFromString assigns this Graph from a graph expression.
func (g *Graph) InitFromString(expr string) error {
	g.Init()

	parsed, err := parseGraphExpr.ParseString("", expr)
	if err != nil {
		return err
	}

	for pi, part := range parsed.Parts {
		v0 := g.VertexCount()
		if err := g.applyPart(v0, part); err != nil {
			return errors.Wrapf(err, "part #%d", pi+1)
		}
	}
	return nil
}

func (g *Graph) applyPart(v0 int, part *graphPart) error {

	// First pass: part-local IDs are one-based and dense up to their max
	maxID := int64(0)
	for _, run := range part.Runs {
		if run.Start.ID > maxID {
			maxID = run.Start.ID
		}
		for _, hop := range run.Hops {
			if hop.End.ID > maxID {
				maxID = hop.End.ID
			}
		}
	}
	for i := int64(0); i < maxID; i++ {
		g.AddVertex(0)
	}

	tally := func(ref *vtxRef) (int, error) {
		if ref.ID < 1 || ref.ID > maxID {
			return 0, ErrBadVtxID
		}
		v := v0 + int(ref.ID) - 1
		for _, r := range ref.Marks {
			if r == '^' {
				g.BumpColor(v, 1)
			}
		}
		return v, nil
	}

	for _, run := range part.Runs {
		cur, err := tally(run.Start)
		if err != nil {
			return err
		}
		for _, hop := range run.Hops {
			next, err := tally(hop.End)
			if err != nil {
				return err
			}
			weight, ok := edgeWeights[hop.Kind]
			if !ok {
				return ErrBadEdge
			}
			g.AddEdge(cur, next, weight)
			cur = next
		}
	}
	return nil
}

// FromString builds a pooled Graph from an expression.
func FromString(expr string) (*Graph, error) {
	g := NewGraph()
	if err := g.InitFromString(expr); err != nil {
		g.Reclaim()
		return nil, err
	}
	return g, nil
}

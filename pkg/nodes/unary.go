package nodes

import (
	"github.com/matzehuels/exprgraph/pkg/errors"
	"github.com/matzehuels/exprgraph/pkg/graph"
)

// UnaryOp applies an elementwise function to one array.
type UnaryOp struct {
	graph.ArrayOutput
	op   Op
	pred graph.Handle

	integral bool
	bounds   graph.Range
}

// NewAbsolute adds |x| over the array at x.
func NewAbsolute(g *graph.Graph, x graph.Handle) (*UnaryOp, error) {
	return NewUnary(g, OpAbsolute, x)
}

// NewNegative adds -x over the array at x.
func NewNegative(g *graph.Graph, x graph.Handle) (*UnaryOp, error) {
	return NewUnary(g, OpNegative, x)
}

// NewSquare adds x*x over the array at x.
func NewSquare(g *graph.Graph, x graph.Handle) (*UnaryOp, error) {
	return NewUnary(g, OpSquare, x)
}

// NewUnary adds the unary op applied to the array at x. The output has the
// shape of x, including a dynamic first extent.
func NewUnary(g *graph.Graph, op Op, x graph.Handle) (*UnaryOp, error) {
	if !op.isUnary() {
		return nil, errors.New(errors.ErrCodeUnsupported, "%v is not a unary op", op)
	}
	a, err := g.Array(x)
	if err != nil {
		return nil, err
	}
	si, err := graph.NewShapeInfo(a.Shape())
	if err != nil {
		return nil, err
	}
	n := &UnaryOp{
		ArrayOutput: graph.NewArrayOutput(si),
		op:          op,
		pred:        x,
		integral:    a.Integral(),
		bounds:      op.unaryRange(a.ValueRange()),
	}
	if _, err := g.Add(n, x); err != nil {
		return nil, err
	}
	return n, nil
}

// Op returns the elementwise function.
func (n *UnaryOp) Op() Op { return n.op }

func (n *UnaryOp) InitializeState(s *graph.State) error {
	in := s.Array(n.pred).Buffer(s)
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = n.op.applyUnary(x)
	}
	s.Init(n.Handle(), out)
	return nil
}

func (n *UnaryOp) Propagate(s *graph.State) error {
	p := s.Array(n.pred)
	in := p.Buffer(s)
	out := n.Output(s)
	limit := min(len(in), out.Len())
	for _, u := range out.Consume(0, p.Diff(s)) {
		if u.Index < limit {
			out.Set(u.Index, n.op.applyUnary(in[u.Index]))
		}
	}
	out.Resize(len(in), func(i int) float64 { return n.op.applyUnary(in[i]) })
	return nil
}

func (n *UnaryOp) Integral() bool { return n.integral }

func (n *UnaryOp) ValueRange() graph.Range { return n.bounds }

func (n *UnaryOp) String() string { return n.op.String() }

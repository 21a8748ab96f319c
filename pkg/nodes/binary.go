package nodes

import (
	"github.com/matzehuels/exprgraph/pkg/errors"
	"github.com/matzehuels/exprgraph/pkg/graph"
)

// BinaryOp applies an elementwise function to two arrays of equal shape.
// Logical and comparison ops produce 0 or 1.
type BinaryOp struct {
	graph.ArrayOutput
	op       Op
	lhs, rhs graph.Handle

	integral bool
	bounds   graph.Range
}

// NewAdd adds lhs + rhs.
func NewAdd(g *graph.Graph, lhs, rhs graph.Handle) (*BinaryOp, error) {
	return NewBinary(g, OpAdd, lhs, rhs)
}

// NewSubtract adds lhs - rhs.
func NewSubtract(g *graph.Graph, lhs, rhs graph.Handle) (*BinaryOp, error) {
	return NewBinary(g, OpSubtract, lhs, rhs)
}

// NewMultiply adds lhs * rhs.
func NewMultiply(g *graph.Graph, lhs, rhs graph.Handle) (*BinaryOp, error) {
	return NewBinary(g, OpMultiply, lhs, rhs)
}

// NewAnd adds the logical conjunction of lhs and rhs.
func NewAnd(g *graph.Graph, lhs, rhs graph.Handle) (*BinaryOp, error) {
	return NewBinary(g, OpAnd, lhs, rhs)
}

// NewOr adds the logical disjunction of lhs and rhs.
func NewOr(g *graph.Graph, lhs, rhs graph.Handle) (*BinaryOp, error) {
	return NewBinary(g, OpOr, lhs, rhs)
}

// NewEqual adds lhs == rhs.
func NewEqual(g *graph.Graph, lhs, rhs graph.Handle) (*BinaryOp, error) {
	return NewBinary(g, OpEqual, lhs, rhs)
}

// NewLessEqual adds lhs <= rhs.
func NewLessEqual(g *graph.Graph, lhs, rhs graph.Handle) (*BinaryOp, error) {
	return NewBinary(g, OpLessEqual, lhs, rhs)
}

// NewMaximum adds the elementwise maximum of lhs and rhs.
func NewMaximum(g *graph.Graph, lhs, rhs graph.Handle) (*BinaryOp, error) {
	return NewBinary(g, OpMaximum, lhs, rhs)
}

// NewMinimum adds the elementwise minimum of lhs and rhs.
func NewMinimum(g *graph.Graph, lhs, rhs graph.Handle) (*BinaryOp, error) {
	return NewBinary(g, OpMinimum, lhs, rhs)
}

// NewBinary adds the binary op applied to lhs and rhs, which must have the
// same shape. Both may be dynamic; their sizes are then checked in every
// state.
func NewBinary(g *graph.Graph, op Op, lhs, rhs graph.Handle) (*BinaryOp, error) {
	if !op.isBinary() {
		return nil, errors.New(errors.ErrCodeUnsupported, "%v is not a binary op", op)
	}
	l, err := g.Array(lhs)
	if err != nil {
		return nil, err
	}
	r, err := g.Array(rhs)
	if err != nil {
		return nil, err
	}
	si, err := graph.NewShapeInfo(l.Shape())
	if err != nil {
		return nil, err
	}
	if !si.SameShape(r.Shape()) {
		return nil, errors.New(errors.ErrCodeShapeMismatch, "%v: shapes %v and %v differ", op, l.Shape(), r.Shape())
	}
	n := &BinaryOp{
		ArrayOutput: graph.NewArrayOutput(si),
		op:          op,
		lhs:         lhs,
		rhs:         rhs,
		integral:    op.logical() || (l.Integral() && r.Integral()),
		bounds:      op.combineRange(l.ValueRange(), r.ValueRange()),
	}
	if _, err := g.Add(n, lhs, rhs); err != nil {
		return nil, err
	}
	return n, nil
}

// Op returns the elementwise function.
func (n *BinaryOp) Op() Op { return n.op }

func (n *BinaryOp) operands(s *graph.State) (l, r []float64, err error) {
	l = s.Array(n.lhs).Buffer(s)
	r = s.Array(n.rhs).Buffer(s)
	if len(l) != len(r) {
		return nil, nil, errors.New(errors.ErrCodeShapeMismatch, "%v: operand sizes %d and %d differ", n.op, len(l), len(r))
	}
	return l, r, nil
}

func (n *BinaryOp) InitializeState(s *graph.State) error {
	l, r, err := n.operands(s)
	if err != nil {
		return err
	}
	out := make([]float64, len(l))
	for i := range out {
		out[i] = n.op.apply(l[i], r[i])
	}
	s.Init(n.Handle(), out)
	return nil
}

func (n *BinaryOp) Propagate(s *graph.State) error {
	l, r, err := n.operands(s)
	if err != nil {
		return err
	}
	out := n.Output(s)
	limit := min(len(l), out.Len())
	for k, h := range [2]graph.Handle{n.lhs, n.rhs} {
		for _, u := range out.Consume(k, s.Array(h).Diff(s)) {
			if i := u.Index; i < limit {
				out.Set(i, n.op.apply(l[i], r[i]))
			}
		}
	}
	out.Resize(len(l), func(i int) float64 { return n.op.apply(l[i], r[i]) })
	return nil
}

func (n *BinaryOp) Integral() bool { return n.integral }

func (n *BinaryOp) ValueRange() graph.Range { return n.bounds }

func (n *BinaryOp) String() string { return n.op.String() }

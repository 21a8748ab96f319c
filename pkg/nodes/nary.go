package nodes

import (
	"github.com/matzehuels/exprgraph/pkg/errors"
	"github.com/matzehuels/exprgraph/pkg/graph"
)

// NaryOp folds an associative op elementwise over one or more arrays of
// equal shape. Operands may be appended with AddPredecessor until the graph
// is frozen by its first state.
type NaryOp struct {
	graph.ArrayOutput
	op Op
}

// NewNaryAdd adds the elementwise sum of xs.
func NewNaryAdd(g *graph.Graph, xs ...graph.Handle) (*NaryOp, error) {
	return NewNary(g, OpAdd, xs...)
}

// NewNaryMultiply adds the elementwise product of xs.
func NewNaryMultiply(g *graph.Graph, xs ...graph.Handle) (*NaryOp, error) {
	return NewNary(g, OpMultiply, xs...)
}

// NewNaryMaximum adds the elementwise maximum of xs.
func NewNaryMaximum(g *graph.Graph, xs ...graph.Handle) (*NaryOp, error) {
	return NewNary(g, OpMaximum, xs...)
}

// NewNaryMinimum adds the elementwise minimum of xs.
func NewNaryMinimum(g *graph.Graph, xs ...graph.Handle) (*NaryOp, error) {
	return NewNary(g, OpMinimum, xs...)
}

// NewNary adds op folded over xs. At least one operand is required and all
// operands must share the first operand's shape.
func NewNary(g *graph.Graph, op Op, xs ...graph.Handle) (*NaryOp, error) {
	if !op.isNary() {
		return nil, errors.New(errors.ErrCodeUnsupported, "%v is not an n-ary op", op)
	}
	if len(xs) == 0 {
		return nil, errors.New(errors.ErrCodePredecessorCount, "%v needs at least one operand", op)
	}
	first, err := g.Array(xs[0])
	if err != nil {
		return nil, err
	}
	si, err := graph.NewShapeInfo(first.Shape())
	if err != nil {
		return nil, err
	}
	for i, h := range xs[1:] {
		a, err := g.Array(h)
		if err != nil {
			return nil, err
		}
		if !si.SameShape(a.Shape()) {
			return nil, errors.New(errors.ErrCodeShapeMismatch, "%v: operand %d has shape %v, want %v", op, i+1, a.Shape(), first.Shape())
		}
	}
	n := &NaryOp{ArrayOutput: graph.NewArrayOutput(si), op: op}
	if _, err := g.Add(n, xs...); err != nil {
		return nil, err
	}
	return n, nil
}

// AddPredecessor appends one more operand. Returns FROZEN once the graph
// has a state, and SHAPE_MISMATCH if x does not have the node's shape.
func (n *NaryOp) AddPredecessor(x graph.Handle) error {
	g := n.Graph()
	if g.Frozen() {
		return errors.New(errors.ErrCodeFrozen, "cannot append operands to %v after first use", n.op)
	}
	a, err := g.Array(x)
	if err != nil {
		return err
	}
	if !n.SameShape(a.Shape()) {
		return errors.New(errors.ErrCodeShapeMismatch, "%v: operand has shape %v, want %v", n.op, a.Shape(), n.Shape())
	}
	return g.AddPredecessor(n.Handle(), x)
}

// Op returns the folded function.
func (n *NaryOp) Op() Op { return n.op }

func (n *NaryOp) arrays() []graph.Array {
	g := n.Graph()
	preds := n.Predecessors()
	out := make([]graph.Array, len(preds))
	for i, h := range preds {
		out[i], _ = g.Array(h)
	}
	return out
}

func (n *NaryOp) operands(s *graph.State) ([][]float64, error) {
	preds := n.Predecessors()
	bufs := make([][]float64, len(preds))
	for k, h := range preds {
		bufs[k] = s.Array(h).Buffer(s)
		if len(bufs[k]) != len(bufs[0]) {
			return nil, errors.New(errors.ErrCodeShapeMismatch, "%v: operand %d has size %d, want %d", n.op, k, len(bufs[k]), len(bufs[0]))
		}
	}
	return bufs, nil
}

func (n *NaryOp) fold(bufs [][]float64, i int) float64 {
	v := bufs[0][i]
	for _, b := range bufs[1:] {
		v = n.op.apply(v, b[i])
	}
	return v
}

func (n *NaryOp) InitializeState(s *graph.State) error {
	bufs, err := n.operands(s)
	if err != nil {
		return err
	}
	out := make([]float64, len(bufs[0]))
	for i := range out {
		out[i] = n.fold(bufs, i)
	}
	s.Init(n.Handle(), out)
	return nil
}

// Propagate applies each operand update as a delta where the op allows it.
// Sums add new-old, products divide out old and multiply in new, and
// extrema adopt a value that reaches the current extremum. An index is
// recomputed from all operands when the delta cannot be applied: a product
// factor leaving 0, an extremum that gets worse, a NaN or infinity on
// either side of the delta, or a position that was removed or placed.
func (n *NaryOp) Propagate(s *graph.State) error {
	bufs, err := n.operands(s)
	if err != nil {
		return err
	}
	out := n.Output(s)
	limit := min(len(bufs[0]), out.Len())

	var recompute []int
	for k, h := range n.Predecessors() {
		for _, u := range out.Consume(k, s.Array(h).Diff(s)) {
			i := u.Index
			if i >= limit {
				continue
			}
			if u.Placed() || u.Removed() {
				recompute = append(recompute, i)
				continue
			}
			cur := out.At(i)
			switch n.op {
			case OpAdd:
				if v := cur - u.Old + u.New; finite(cur, u.Old, v) {
					out.Set(i, v)
				} else {
					recompute = append(recompute, i)
				}
			case OpMultiply:
				if v := cur / u.Old * u.New; u.Old != 0 && finite(cur, u.Old, v) {
					out.Set(i, v)
				} else {
					recompute = append(recompute, i)
				}
			case OpMaximum, OpMinimum:
				switch {
				case anyNaN(cur, u.Old, u.New):
					recompute = append(recompute, i)
				case n.op.better(u.New, cur):
					out.Set(i, u.New)
				case u.Old == cur:
					recompute = append(recompute, i)
				}
			}
		}
	}
	for _, i := range recompute {
		out.Set(i, n.fold(bufs, i))
	}
	out.Resize(len(bufs[0]), func(i int) float64 { return n.fold(bufs, i) })
	return nil
}

func (n *NaryOp) Integral() bool {
	for _, a := range n.arrays() {
		if !a.Integral() {
			return false
		}
	}
	return true
}

func (n *NaryOp) ValueRange() graph.Range {
	arrays := n.arrays()
	r := arrays[0].ValueRange()
	for _, a := range arrays[1:] {
		r = n.op.combineRange(r, a.ValueRange())
	}
	return r
}

func (n *NaryOp) String() string { return "Nary" + n.op.String() }

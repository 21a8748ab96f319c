package nodes

import (
	"fmt"
	"math"

	"github.com/matzehuels/exprgraph/pkg/errors"
	"github.com/matzehuels/exprgraph/pkg/graph"
)

// Reduce folds all elements of one array into a scalar.
//
// The initial value is only used while the input is empty; a non-empty
// input reduces over its elements alone. Inputs that can be empty need an
// initial value: sums, products and all-reductions default to their
// identity, maximum and minimum have none and must be given one.
type Reduce struct {
	graph.ArrayOutput
	op   Op
	pred graph.Handle

	init    float64
	hasInit bool

	integral bool
	bounds   graph.Range
}

// ReduceOption configures a Reduce.
type ReduceOption func(*reduceConfig)

type reduceConfig struct {
	init    float64
	hasInit bool
}

// WithInit sets the value of the reduction over an empty input.
func WithInit(v float64) ReduceOption {
	return func(c *reduceConfig) {
		c.init = v
		c.hasInit = true
	}
}

// NewSum adds the sum of all elements of x.
func NewSum(g *graph.Graph, x graph.Handle, opts ...ReduceOption) (*Reduce, error) {
	return NewReduce(g, OpAdd, x, opts...)
}

// NewProd adds the product of all elements of x.
func NewProd(g *graph.Graph, x graph.Handle, opts ...ReduceOption) (*Reduce, error) {
	return NewReduce(g, OpMultiply, x, opts...)
}

// NewMax adds the largest element of x.
func NewMax(g *graph.Graph, x graph.Handle, opts ...ReduceOption) (*Reduce, error) {
	return NewReduce(g, OpMaximum, x, opts...)
}

// NewMin adds the smallest element of x.
func NewMin(g *graph.Graph, x graph.Handle, opts ...ReduceOption) (*Reduce, error) {
	return NewReduce(g, OpMinimum, x, opts...)
}

// NewAll adds 1 if every element of x is non-zero and 0 otherwise.
func NewAll(g *graph.Graph, x graph.Handle, opts ...ReduceOption) (*Reduce, error) {
	return NewReduce(g, OpAnd, x, opts...)
}

// NewReduce adds op folded over every element of x.
//
// Returns NO_IDENTITY when x can be empty, no initial value was given and op
// has no identity, or when x has a fixed size of zero and no initial value
// was given.
func NewReduce(g *graph.Graph, op Op, x graph.Handle, opts ...ReduceOption) (*Reduce, error) {
	if !op.isReduce() {
		return nil, errors.New(errors.ErrCodeUnsupported, "%v is not a reduction", op)
	}
	a, err := g.Array(x)
	if err != nil {
		return nil, err
	}
	var cfg reduceConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	n := &Reduce{
		ArrayOutput: graph.NewArrayOutput(graph.ScalarShape()),
		op:          op,
		pred:        x,
		init:        cfg.init,
		hasInit:     cfg.hasInit,
	}
	size := graph.MaxSize(a)
	dynamic := len(a.Shape()) > 0 && a.Shape()[0] == graph.Dynamic
	if !n.hasInit {
		switch {
		case dynamic:
			id, ok := op.identity()
			if !ok {
				return nil, errors.New(errors.ErrCodeNoIdentity, "%v over a dynamic array needs an initial value", n)
			}
			n.init, n.hasInit = id, true
		case size == 0:
			return nil, errors.New(errors.ErrCodeNoIdentity, "%v over an empty array needs an initial value", n)
		}
	}

	canBeEmpty := dynamic || size == 0
	elemIntegral := op == OpAnd || a.Integral()
	n.integral = (size == 0 || elemIntegral) && (!canBeEmpty || isInteger(n.init))
	n.bounds = n.reduceRange(a.ValueRange(), size, canBeEmpty)
	if _, err := g.Add(n, x); err != nil {
		return nil, err
	}
	return n, nil
}

// Op returns the folded function.
func (n *Reduce) Op() Op { return n.op }

// Init returns the value over an empty input and whether one is set.
func (n *Reduce) Init() (float64, bool) { return n.init, n.hasInit }

func (n *Reduce) reduce(values []float64) float64 {
	if len(values) == 0 {
		return n.init
	}
	v := n.op.seed(values[0])
	for _, x := range values[1:] {
		v = n.op.apply(v, x)
	}
	return v
}

func (n *Reduce) InitializeState(s *graph.State) error {
	values := s.Array(n.pred).Buffer(s)
	out := s.Init(n.Handle(), []float64{n.reduce(values)})
	if n.op == OpAnd {
		zeros := 0
		for _, v := range values {
			if v == 0 {
				zeros++
			}
		}
		out.InitCount(zeros)
	}
	return nil
}

// Propagate folds the input's updates into the scalar. Any transition from
// or to an empty input, a product factor leaving 0, an extremum getting
// worse, or a NaN or infinity in a running sum or product triggers a rescan
// of the input, after which the remaining updates are already reflected.
// All-reductions track the number of zero elements and never rescan.
func (n *Reduce) Propagate(s *graph.State) error {
	p := s.Array(n.pred)
	values := p.Buffer(s)
	out := n.Output(s)
	updates := out.Consume(0, p.Diff(s))
	if len(updates) == 0 {
		return nil
	}
	if n.op == OpAnd {
		n.propagateAll(out, values, updates)
		return nil
	}

	prevSize := len(values)
	for _, u := range updates {
		switch {
		case u.Placed():
			prevSize--
		case u.Removed():
			prevSize++
		}
	}
	rescan := func() error {
		out.Set(0, n.reduce(values))
		return nil
	}
	if len(values) == 0 || prevSize == 0 {
		return rescan()
	}

	cur := out.At(0)
	for _, u := range updates {
		placed, removed := u.Placed(), u.Removed()
		switch n.op {
		case OpAdd:
			v := cur
			if !placed {
				v -= u.Old
			}
			if !removed {
				v += u.New
			}
			if !finite(cur, u.Old, v) {
				return rescan()
			}
			cur = v
		case OpMultiply:
			v := cur
			if !placed {
				if u.Old == 0 {
					return rescan()
				}
				v /= u.Old
			}
			if !removed {
				v *= u.New
			}
			if !finite(cur, u.Old, v) {
				return rescan()
			}
			cur = v
		case OpMaximum, OpMinimum:
			switch {
			case anyNaN(cur, u.Old, u.New):
				return rescan()
			case !removed && n.op.better(u.New, cur):
				cur = u.New
			case !placed && u.Old == cur:
				return rescan()
			}
		}
	}
	out.Set(0, cur)
	return nil
}

// propagateAll keeps the number of zero elements in the output's counter;
// the result is 1 while it is zero.
func (n *Reduce) propagateAll(out *graph.Buffer, values []float64, updates []graph.Update) {
	delta := 0
	for _, u := range updates {
		if !u.Placed() && u.Old == 0 {
			delta--
		}
		if !u.Removed() && u.New == 0 {
			delta++
		}
	}
	out.AddCount(delta)
	if len(values) == 0 {
		out.Set(0, n.init)
		return
	}
	out.Set(0, b2f(out.Count() == 0))
}

func (n *Reduce) Integral() bool { return n.integral }

func (n *Reduce) ValueRange() graph.Range { return n.bounds }

// reduceRange bounds the reduction of up to maxSize elements drawn from r
// (exactly maxSize when the input has a fixed size). maxSize < 0 means the
// size is unbounded.
func (n *Reduce) reduceRange(r graph.Range, maxSize int, canBeEmpty bool) graph.Range {
	withInit := func(out graph.Range) graph.Range {
		if canBeEmpty && n.hasInit {
			return out.Include(n.init)
		}
		return out
	}
	if maxSize == 0 {
		return graph.Range{Min: n.init, Max: n.init}
	}
	dynamic := canBeEmpty

	switch n.op {
	case OpAnd:
		return withInit(graph.BoolRange())
	case OpMaximum, OpMinimum:
		return withInit(r)
	case OpAdd:
		if !dynamic {
			k := float64(maxSize)
			return graph.Range{Min: mulBound(k, r.Min), Max: mulBound(k, r.Max)}
		}
		lo, hi := r.Min, r.Max
		if lo < 0 {
			lo = scaleBound(lo, maxSize)
		}
		if hi > 0 {
			hi = scaleBound(hi, maxSize)
		}
		return withInit(graph.Range{Min: lo, Max: hi})
	case OpMultiply:
		if !dynamic {
			return powRange(r, maxSize)
		}
		if maxSize > 0 {
			return withInit(powRange(r, 1).Union(powRange(r, maxSize)))
		}
		return withInit(unboundedPowRange(r))
	}
	return graph.Unbounded()
}

func (n *Reduce) String() string {
	switch n.op {
	case OpAdd:
		return "Sum"
	case OpMultiply:
		return "Prod"
	case OpMaximum:
		return "Max"
	case OpMinimum:
		return "Min"
	case OpAnd:
		return "All"
	}
	return fmt.Sprintf("Reduce(%v)", n.op)
}

// scaleBound multiplies a bound by a count, or pushes it to infinity when
// the count is unknown.
func scaleBound(b float64, count int) float64 {
	if count < 0 {
		return math.Inf(int(math.Copysign(1, b)))
	}
	return mulBound(float64(count), b)
}

// powRange bounds the product of k factors drawn from r.
func powRange(r graph.Range, k int) graph.Range {
	if r.Min >= 0 {
		return graph.Range{Min: math.Pow(r.Min, float64(k)), Max: math.Pow(r.Max, float64(k))}
	}
	m := math.Pow(max(math.Abs(r.Min), math.Abs(r.Max)), float64(k))
	if k == 1 {
		return r
	}
	return graph.Range{Min: -m, Max: m}
}

// unboundedPowRange bounds products of any number of factors drawn from r.
func unboundedPowRange(r graph.Range) graph.Range {
	switch {
	case r.Min >= 0 && r.Max <= 1:
		return graph.Range{Min: 0, Max: r.Max}
	case r.Min >= -1 && r.Max <= 1:
		m := max(math.Abs(r.Min), math.Abs(r.Max))
		return graph.Range{Min: -m, Max: m}
	case r.Min >= 1:
		return graph.Range{Min: r.Min, Max: math.Inf(1)}
	case r.Min >= 0:
		return graph.Range{Min: 0, Max: math.Inf(1)}
	}
	return graph.Unbounded()
}

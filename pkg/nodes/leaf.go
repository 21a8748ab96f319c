package nodes

import (
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/exprgraph/pkg/errors"
	"github.com/matzehuels/exprgraph/pkg/graph"
)

// Constant is a leaf whose values are identical in every state.
type Constant struct {
	graph.ArrayOutput
	values []float64
}

// NewConstant adds a constant array with the given fixed shape to g.
// len(values) must equal the number of elements of shape.
func NewConstant(g *graph.Graph, shape graph.Shape, values []float64) (*Constant, error) {
	si, err := graph.NewShapeInfo(shape)
	if err != nil {
		return nil, err
	}
	if si.Dynamic() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "constant cannot have dynamic shape %v", shape)
	}
	if n := si.FixedSize(); n != len(values) {
		return nil, errors.New(errors.ErrCodeShapeMismatch, "shape %v needs %d values, got %d", shape, n, len(values))
	}
	c := &Constant{ArrayOutput: graph.NewArrayOutput(si), values: slices.Clone(values)}
	if _, err := g.Add(c); err != nil {
		return nil, err
	}
	return c, nil
}

// NewScalarConstant adds a scalar constant to g.
func NewScalarConstant(g *graph.Graph, v float64) (*Constant, error) {
	return NewConstant(g, nil, []float64{v})
}

func (c *Constant) InitializeState(s *graph.State) error {
	s.Init(c.Handle(), slices.Clone(c.values))
	return nil
}

func (c *Constant) Propagate(*graph.State) error { return nil }

func (c *Constant) Integral() bool {
	for _, v := range c.values {
		if !isInteger(v) {
			return false
		}
	}
	return true
}

func (c *Constant) ValueRange() graph.Range {
	if len(c.values) == 0 {
		return graph.Range{}
	}
	r := graph.Range{Min: c.values[0], Max: c.values[0]}
	for _, v := range c.values[1:] {
		r = r.Include(v)
	}
	return r
}

func (c *Constant) String() string { return fmt.Sprintf("Constant%v", c.Shape()) }

// Variable is a leaf whose values are chosen per state by the caller, for
// example by a local search move. Its first extent may be [graph.Dynamic],
// in which case elements are appended with Grow and removed with Shrink.
type Variable struct {
	graph.ArrayOutput
	bounds   graph.Range
	integral bool
	maxSize  int
	initial  []float64
}

// VariableOption configures a Variable.
type VariableOption func(*Variable)

// WithBounds restricts every value of the variable to [lo, hi].
func WithBounds(lo, hi float64) VariableOption {
	return func(v *Variable) { v.bounds = graph.Range{Min: lo, Max: hi} }
}

// WithIntegral restricts the variable to integer values.
func WithIntegral() VariableOption {
	return func(v *Variable) { v.integral = true }
}

// WithInitial sets the values every new state starts from.
func WithInitial(values ...float64) VariableOption {
	return func(v *Variable) { v.initial = slices.Clone(values) }
}

// WithMaxSize caps the size of a dynamic variable.
func WithMaxSize(n int) VariableOption {
	return func(v *Variable) { v.maxSize = n }
}

// NewVariable adds a decision variable with the given shape to g.
//
// Fixed-shape variables without WithInitial start at the bound closest to 0.
// Dynamic variables start empty unless WithInitial is given.
func NewVariable(g *graph.Graph, shape graph.Shape, opts ...VariableOption) (*Variable, error) {
	si, err := graph.NewShapeInfo(shape)
	if err != nil {
		return nil, err
	}
	v := &Variable{ArrayOutput: graph.NewArrayOutput(si), bounds: graph.Unbounded(), maxSize: -1}
	for _, opt := range opts {
		opt(v)
	}
	if v.bounds.Min > v.bounds.Max {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty bounds %v", v.bounds)
	}
	if v.maxSize >= 0 && !si.Dynamic() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "max size only applies to dynamic shapes, got %v", shape)
	}
	if v.initial == nil && !si.Dynamic() {
		v.initial = make([]float64, si.FixedSize())
		start := math.Min(math.Max(0, v.bounds.Min), v.bounds.Max)
		if v.integral {
			start = math.Ceil(start)
		}
		for i := range v.initial {
			v.initial[i] = start
		}
	}
	if err := v.checkSize(len(v.initial)); err != nil {
		return nil, err
	}
	for _, x := range v.initial {
		if err := v.check(x); err != nil {
			return nil, err
		}
	}
	if _, err := g.Add(v); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Variable) InitializeState(s *graph.State) error {
	s.Init(v.Handle(), slices.Clone(v.initial))
	return nil
}

func (v *Variable) Propagate(*graph.State) error { return nil }

func (v *Variable) Integral() bool { return v.integral }

func (v *Variable) ValueRange() graph.Range { return v.bounds }

// MaxSize returns the size cap of a dynamic variable, or -1 if uncapped.
func (v *Variable) MaxSize() int { return v.maxSize }

func (v *Variable) String() string { return fmt.Sprintf("Variable%v", v.Shape()) }

// Set changes the value at index i in s.
func (v *Variable) Set(s *graph.State, i int, x float64) error {
	out := v.Output(s)
	if i < 0 || i >= out.Len() {
		return errors.New(errors.ErrCodeIndexOutOfRange, "index %d out of range [0, %d)", i, out.Len())
	}
	if err := v.check(x); err != nil {
		return err
	}
	out.Set(i, x)
	return nil
}

// Assign replaces every value in s. A dynamic variable takes the length of
// values; a fixed one requires it to match.
func (v *Variable) Assign(s *graph.State, values []float64) error {
	if err := v.checkSize(len(values)); err != nil {
		return err
	}
	for _, x := range values {
		if err := v.check(x); err != nil {
			return err
		}
	}
	v.Output(s).Assign(values)
	return nil
}

// Grow appends x to a dynamic variable in s.
func (v *Variable) Grow(s *graph.State, x float64) error {
	if !v.Dynamic() {
		return errors.New(errors.ErrCodeUnsupported, "cannot grow fixed shape %v", v.Shape())
	}
	out := v.Output(s)
	if err := v.checkSize(out.Len() + 1); err != nil {
		return err
	}
	if err := v.check(x); err != nil {
		return err
	}
	out.Emplace(x)
	return nil
}

// Shrink removes the last element of a dynamic variable in s.
func (v *Variable) Shrink(s *graph.State) error {
	if !v.Dynamic() {
		return errors.New(errors.ErrCodeUnsupported, "cannot shrink fixed shape %v", v.Shape())
	}
	out := v.Output(s)
	if out.Len() == 0 {
		return errors.New(errors.ErrCodeIndexOutOfRange, "cannot shrink an empty variable")
	}
	out.Pop()
	return nil
}

func (v *Variable) check(x float64) error {
	if math.IsNaN(x) || !v.bounds.Contains(x) {
		return errors.New(errors.ErrCodeOutOfBounds, "value %g outside bounds %v", x, v.bounds)
	}
	if v.integral && !isInteger(x) {
		return errors.New(errors.ErrCodeOutOfBounds, "value %g is not an integer", x)
	}
	return nil
}

func (v *Variable) checkSize(n int) error {
	if !v.Dynamic() {
		if want := v.FixedSize(); n != want {
			return errors.New(errors.ErrCodeShapeMismatch, "shape %v needs %d values, got %d", v.Shape(), want, n)
		}
		return nil
	}
	if v.maxSize >= 0 && n > v.maxSize {
		return errors.New(errors.ErrCodeOutOfBounds, "size %d exceeds max size %d", n, v.maxSize)
	}
	return nil
}

func isInteger(x float64) bool { return x == math.Trunc(x) && !math.IsInf(x, 0) }

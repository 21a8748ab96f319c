package nodes

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matzehuels/exprgraph/pkg/graph"
)

// fixture is a graph exercising every operator over two fixed and two
// dynamic variables. d and e always have the same length.
type fixture struct {
	g          *graph.Graph
	a, b, d, e *Variable
	leaves     leafKind
}

type leafValues struct{ a, b, d, e []float64 }

// leafKind describes the variables of a fixture and the values random moves
// write to them.
type leafKind struct {
	name  string
	opts  []VariableOption
	value func(rng *rand.Rand) float64

	// tol is the relative tolerance when comparing against a batch
	// recomputation; running sums and products of reals drift slightly.
	tol float64
}

var (
	integerLeaves = leafKind{
		name:  "integer",
		opts:  []VariableOption{WithBounds(-3, 3), WithIntegral()},
		value: func(rng *rand.Rand) float64 { return float64(rng.IntN(7) - 3) },
	}
	realLeaves = leafKind{
		name:  "real",
		opts:  []VariableOption{WithBounds(-3, 3)},
		value: func(rng *rand.Rand) float64 { return rng.Float64()*6 - 3 },
		tol:   1e-9,
	}
	nonFiniteLeaves = leafKind{
		name: "non-finite",
		value: func(rng *rand.Rand) float64 {
			choices := [...]float64{math.Inf(-1), math.Inf(1), 0, 0, -2, 0.5, 1, 3}
			return choices[rng.IntN(len(choices))]
		},
		tol: 1e-9,
	}
	allLeafKinds = []leafKind{integerLeaves, realLeaves, nonFiniteLeaves}
)

func buildFixture(t *testing.T, leaves leafKind, init leafValues) *fixture {
	t.Helper()
	g := graph.New()
	f := &fixture{g: g, leaves: leaves}
	opts := func(extra ...VariableOption) []VariableOption { return slices.Concat(leaves.opts, extra) }
	f.a = variable(t, g, graph.Shape{4}, opts(WithInitial(init.a...))...)
	f.b = variable(t, g, graph.Shape{4}, opts(WithInitial(init.b...))...)
	f.d = variable(t, g, graph.Shape{graph.Dynamic}, opts(WithInitial(init.d...), WithMaxSize(6))...)
	f.e = variable(t, g, graph.Shape{graph.Dynamic}, opts(WithInitial(init.e...), WithMaxSize(6))...)

	must := func(n graph.Array, err error) graph.Handle {
		t.Helper()
		require.NoError(t, err)
		return n.Handle()
	}
	for _, x := range []graph.Handle{f.a.Handle(), f.d.Handle()} {
		for _, op := range []Op{OpAbsolute, OpNegative, OpSquare} {
			must(NewUnary(g, op, x))
		}
		for _, op := range []Op{OpAdd, OpMultiply, OpAnd} {
			must(NewReduce(g, op, x))
		}
		must(NewMax(g, x, WithInit(-10)))
		must(NewMin(g, x, WithInit(10)))
	}
	for _, pair := range [][2]graph.Handle{{f.a.Handle(), f.b.Handle()}, {f.d.Handle(), f.e.Handle()}} {
		var binaries []graph.Handle
		for op := OpAdd; op <= OpMinimum; op++ {
			binaries = append(binaries, must(NewBinary(g, op, pair[0], pair[1])))
		}
		for _, op := range []Op{OpAdd, OpMultiply, OpMaximum, OpMinimum} {
			must(NewNary(g, op, pair[0], pair[1], pair[0]))
		}
		nested := must(NewNaryAdd(g, binaries...))
		must(NewSum(g, nested))
		must(NewMax(g, must(NewSquare(g, binaries[2])), WithInit(0)))
		must(NewAll(g, must(NewLessEqual(g, pair[0], must(NewAbsolute(g, pair[1]))))))
	}
	return f
}

// batch recomputes every operator of s from the current leaf values.
func (f *fixture) batch(t *testing.T, s *graph.State) *graph.State {
	t.Helper()
	scratch, err := f.g.NewState()
	require.NoError(t, err)
	for _, v := range []*Variable{f.a, f.b, f.d, f.e} {
		require.NoError(t, v.Assign(scratch, v.Buffer(s)))
	}
	for _, h := range f.g.Order() {
		n, _ := f.g.Node(h)
		if _, ok := n.(*Variable); ok {
			continue
		}
		require.NoError(t, n.InitializeState(scratch))
	}
	return scratch
}

func (f *fixture) requireMatches(t *testing.T, s *graph.State, step int) {
	t.Helper()
	want := f.batch(t, s)
	for h := range f.g.Len() {
		a, err := f.g.Array(graph.Handle(h))
		require.NoError(t, err)
		requireValues(t, a.Buffer(want), a.Buffer(s), f.leaves.tol, "step %d: node %d (%v)", step, h, a)
	}
}

// requireValues compares buffers elementwise. NaN matches NaN, infinities
// must match exactly, and finite values may differ by tol relative to the
// larger magnitude.
func requireValues(t *testing.T, want, got []float64, tol float64, msgAndArgs ...any) {
	t.Helper()
	require.Len(t, got, len(want), msgAndArgs...)
	for i, w := range want {
		g := got[i]
		if graph.SameValue(w, g) {
			continue
		}
		if !finite(w, g) {
			require.Fail(t, fmt.Sprintf("values differ: index %d: want %v, got %v", i, w, g), msgAndArgs...)
		}
		require.InDelta(t, w, g, tol*max(1, math.Abs(w), math.Abs(g)), msgAndArgs...)
	}
}

// requireSameBits compares buffers bit for bit.
func requireSameBits(t *testing.T, want, got []float64, msgAndArgs ...any) {
	t.Helper()
	require.Len(t, got, len(want), msgAndArgs...)
	for i := range want {
		require.Equal(t, math.Float64bits(want[i]), math.Float64bits(got[i]), msgAndArgs...)
	}
}

func (f *fixture) randomMove(t *testing.T, rng *rand.Rand, s *graph.State) {
	t.Helper()
	val := func() float64 { return f.leaves.value(rng) }
	for range 1 + rng.IntN(3) {
		switch rng.IntN(5) {
		case 0:
			require.NoError(t, f.a.Set(s, rng.IntN(4), val()))
		case 1:
			require.NoError(t, f.b.Set(s, rng.IntN(4), val()))
		case 2:
			if n := f.d.Size(s); n > 0 {
				require.NoError(t, f.d.Set(s, rng.IntN(n), val()))
				require.NoError(t, f.e.Set(s, rng.IntN(n), val()))
			}
		case 3:
			if f.d.Size(s) < 6 {
				require.NoError(t, f.d.Grow(s, val()))
				require.NoError(t, f.e.Grow(s, val()))
			}
		case 4:
			if f.d.Size(s) > 0 {
				require.NoError(t, f.d.Shrink(s))
				require.NoError(t, f.e.Shrink(s))
			}
		}
		if rng.IntN(4) == 0 {
			require.NoError(t, f.g.Propagate(s))
		}
	}
}

func TestIncremental_MatchesBatch(t *testing.T) {
	for _, leaves := range allLeafKinds {
		for seed := range uint64(5) {
			t.Run(fmt.Sprintf("%s/seed=%d", leaves.name, seed), func(t *testing.T) {
				testMatchesBatch(t, leaves, seed)
			})
		}
	}
}

func testMatchesBatch(t *testing.T, leaves leafKind, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, 42))
	f := buildFixture(t, leaves, leafValues{
		a: []float64{1, 0, -2, 3},
		b: []float64{2, 2, -1, 0},
		d: []float64{1, -3},
		e: []float64{0, 2},
	})
	s := newState(t, f.g)
	f.requireMatches(t, s, -1)

	for step := range 200 {
		f.randomMove(t, rng, s)
		require.NoError(t, f.g.Propagate(s))
		f.requireMatches(t, s, step)
		if rng.IntN(2) == 0 {
			f.g.Commit(s)
		} else {
			f.g.Revert(s)
		}
		require.Empty(t, s.Touched())
		f.requireMatches(t, s, step)
	}
}

func TestRevert_RestoresEveryNode(t *testing.T) {
	for _, leaves := range allLeafKinds {
		t.Run(leaves.name, func(t *testing.T) {
			f := buildFixture(t, leaves, leafValues{
				a: []float64{3, -1, 0, 2},
				b: []float64{1, 1, 1, 1},
				d: []float64{2},
				e: []float64{-2},
			})
			s := newState(t, f.g)
			before := make([][]float64, f.g.Len())
			for h := range f.g.Len() {
				a, _ := f.g.Array(graph.Handle(h))
				before[h] = slices.Clone(a.Buffer(s))
			}

			rng := rand.New(rand.NewPCG(7, 7))
			for range 10 {
				f.randomMove(t, rng, s)
			}
			require.NoError(t, f.g.Propagate(s))
			f.g.Revert(s)

			for h := range f.g.Len() {
				a, _ := f.g.Array(graph.Handle(h))
				requireSameBits(t, before[h], a.Buffer(s), "node %d (%v)", h, a)
				require.Empty(t, a.Diff(s))
			}
		})
	}
}

func TestInitialize_MatchesFreshPropagate(t *testing.T) {
	values := leafValues{
		a: []float64{-3, 2, 0, 1},
		b: []float64{0, -2, 3, 1},
		d: []float64{2, 0, -1},
		e: []float64{1, 3, -1},
	}
	direct := buildFixture(t, integerLeaves, values)
	ds := newState(t, direct.g)

	fresh := buildFixture(t, integerLeaves, leafValues{})
	fs := newState(t, fresh.g)
	require.NoError(t, fresh.a.Assign(fs, values.a))
	require.NoError(t, fresh.b.Assign(fs, values.b))
	require.NoError(t, fresh.d.Assign(fs, values.d))
	require.NoError(t, fresh.e.Assign(fs, values.e))
	require.NoError(t, fresh.g.Propagate(fs))
	fresh.g.Commit(fs)

	require.Equal(t, direct.g.Len(), fresh.g.Len())
	for h := range direct.g.Len() {
		da, _ := direct.g.Array(graph.Handle(h))
		fa, _ := fresh.g.Array(graph.Handle(h))
		require.Equal(t, da.Buffer(ds), fa.Buffer(fs), "node %d (%v)", h, da)
	}
}

func TestCommit_Idempotent(t *testing.T) {
	f := buildFixture(t, integerLeaves, leafValues{
		a: []float64{1, 1, 1, 1},
		b: []float64{1, 1, 1, 1},
	})
	s := newState(t, f.g)
	require.NoError(t, f.a.Set(s, 0, 2))
	require.NoError(t, f.d.Grow(s, 3))
	require.NoError(t, f.e.Grow(s, 3))
	require.NoError(t, f.g.Propagate(s))
	f.g.Commit(s)
	after := f.batch(t, s)
	f.g.Commit(s)
	f.g.Revert(s)
	f.requireMatches(t, s, 0)
	require.Equal(t, []float64{3}, f.d.Buffer(after))
}

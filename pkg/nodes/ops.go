package nodes

import (
	"math"

	"github.com/matzehuels/exprgraph/pkg/graph"
)

// Op enumerates the mathematical operations of the operator nodes.
// Each node family accepts a subset:
//
//   - [UnaryOp]: OpAbsolute, OpNegative, OpSquare
//   - [BinaryOp]: OpAdd, OpSubtract, OpMultiply, OpAnd, OpOr, OpEqual,
//     OpLessEqual, OpMaximum, OpMinimum
//   - [NaryOp]: OpAdd, OpMultiply, OpMaximum, OpMinimum
//   - [Reduce]: OpAdd (sum), OpMultiply (product), OpMaximum, OpMinimum,
//     OpAnd (all)
type Op int

const (
	OpAdd Op = iota
	OpSubtract
	OpMultiply
	OpAnd
	OpOr
	OpEqual
	OpLessEqual
	OpMaximum
	OpMinimum
	OpAbsolute
	OpNegative
	OpSquare
)

var opNames = [...]string{
	OpAdd:       "Add",
	OpSubtract:  "Subtract",
	OpMultiply:  "Multiply",
	OpAnd:       "And",
	OpOr:        "Or",
	OpEqual:     "Equal",
	OpLessEqual: "LessEqual",
	OpMaximum:   "Maximum",
	OpMinimum:   "Minimum",
	OpAbsolute:  "Absolute",
	OpNegative:  "Negative",
	OpSquare:    "Square",
}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return "Op(?)"
	}
	return opNames[o]
}

func (o Op) isUnary() bool { return o == OpAbsolute || o == OpNegative || o == OpSquare }

func (o Op) isBinary() bool { return o >= OpAdd && o <= OpMinimum }

func (o Op) isNary() bool {
	return o == OpAdd || o == OpMultiply || o == OpMaximum || o == OpMinimum
}

func (o Op) isReduce() bool { return o.isNary() || o == OpAnd }

// logical reports whether the op yields 0/1 regardless of its inputs.
func (o Op) logical() bool {
	return o == OpAnd || o == OpOr || o == OpEqual || o == OpLessEqual
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (o Op) apply(x, y float64) float64 {
	switch o {
	case OpAdd:
		return x + y
	case OpSubtract:
		return x - y
	case OpMultiply:
		return x * y
	case OpAnd:
		return b2f(x != 0 && y != 0)
	case OpOr:
		return b2f(x != 0 || y != 0)
	case OpEqual:
		return b2f(x == y)
	case OpLessEqual:
		return b2f(x <= y)
	case OpMaximum:
		return max(x, y)
	case OpMinimum:
		return min(x, y)
	}
	panic("nodes: " + o.String() + " is not a binary op")
}

func (o Op) applyUnary(x float64) float64 {
	switch o {
	case OpAbsolute:
		return math.Abs(x)
	case OpNegative:
		return -x
	case OpSquare:
		return x * x
	}
	panic("nodes: " + o.String() + " is not a unary op")
}

// seed converts the first element of a fold; logical folds start from the
// element's truth value.
func (o Op) seed(x float64) float64 {
	if o.logical() {
		return b2f(x != 0)
	}
	return x
}

// identity returns the default reduction value for empty dynamic inputs.
func (o Op) identity() (float64, bool) {
	switch o {
	case OpAdd:
		return 0, true
	case OpMultiply, OpAnd:
		return 1, true
	}
	return 0, false
}

// finite reports whether every x is neither infinite nor NaN. Running sums
// and products are only adjusted by deltas between finite values.
func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return false
		}
	}
	return true
}

func anyNaN(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}

// mulBound multiplies range bounds treating 0 * ±Inf as 0.
func mulBound(a, b float64) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	return a * b
}

// combineRange bounds the values of o applied to operands in l and r.
func (o Op) combineRange(l, r graph.Range) graph.Range {
	switch o {
	case OpAdd:
		return graph.Range{Min: l.Min + r.Min, Max: l.Max + r.Max}
	case OpSubtract:
		return graph.Range{Min: l.Min - r.Max, Max: l.Max - r.Min}
	case OpMultiply:
		corners := [4]float64{
			mulBound(l.Min, r.Min), mulBound(l.Min, r.Max),
			mulBound(l.Max, r.Min), mulBound(l.Max, r.Max),
		}
		out := graph.Range{Min: corners[0], Max: corners[0]}
		for _, c := range corners[1:] {
			out = out.Include(c)
		}
		return out
	case OpMaximum:
		return graph.Range{Min: max(l.Min, r.Min), Max: max(l.Max, r.Max)}
	case OpMinimum:
		return graph.Range{Min: min(l.Min, r.Min), Max: min(l.Max, r.Max)}
	}
	return graph.BoolRange()
}

func (o Op) unaryRange(r graph.Range) graph.Range {
	switch o {
	case OpAbsolute:
		return graph.Range{Min: 0, Max: max(math.Abs(r.Min), math.Abs(r.Max))}
	case OpNegative:
		return graph.Range{Min: -r.Max, Max: -r.Min}
	case OpSquare:
		lo, hi := r.Min*r.Min, r.Max*r.Max
		if r.Min <= 0 && r.Max >= 0 {
			return graph.Range{Min: 0, Max: max(lo, hi)}
		}
		return graph.Range{Min: min(lo, hi), Max: max(lo, hi)}
	}
	return graph.Unbounded()
}

// better reports whether candidate replaces cur as the extremum of a
// maximum or minimum fold.
func (o Op) better(candidate, cur float64) bool {
	if o == OpMaximum {
		return candidate >= cur
	}
	return candidate <= cur
}

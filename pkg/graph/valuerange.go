package graph

import (
	"fmt"
	"math"
)

// Range is an inclusive, possibly infinite, bound on the values a node can
// take in any state.
type Range struct {
	Min float64
	Max float64
}

// Unbounded returns (-Inf, +Inf).
func Unbounded() Range { return Range{Min: math.Inf(-1), Max: math.Inf(1)} }

// BoolRange returns [0, 1], the range of logical outputs.
func BoolRange() Range { return Range{Min: 0, Max: 1} }

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Union returns the smallest range containing both r and o.
func (r Range) Union(o Range) Range {
	return Range{Min: math.Min(r.Min, o.Min), Max: math.Max(r.Max, o.Max)}
}

// Include widens the range to contain v.
func (r Range) Include(v float64) Range { return r.Union(Range{Min: v, Max: v}) }

func (r Range) String() string { return fmt.Sprintf("[%g, %g]", r.Min, r.Max) }

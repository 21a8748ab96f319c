package graph

import (
	"fmt"
	"math"
)

// UpdateKind distinguishes value changes from changes of an array's size.
type UpdateKind uint8

const (
	// UpdateChanged replaces Old with New at Index.
	UpdateChanged UpdateKind = iota
	// UpdatePlaced appends New at Index; Old is unused.
	UpdatePlaced
	// UpdateRemoved drops Old from Index, the last position; New is unused.
	UpdateRemoved
)

// Update records one element change of a node's buffer within one state.
//
// Old and New may hold any float64 including NaN and the infinities; the
// kind of change is carried by Kind alone.
type Update struct {
	Index int
	Old   float64
	New   float64
	Kind  UpdateKind
}

// Placement returns the update recording growth at index i with value v.
func Placement(i int, v float64) Update { return Update{Index: i, New: v, Kind: UpdatePlaced} }

// Removal returns the update recording the removal of old at index i.
func Removal(i int, old float64) Update { return Update{Index: i, Old: old, Kind: UpdateRemoved} }

// Placed reports whether u grew the array.
func (u Update) Placed() bool { return u.Kind == UpdatePlaced }

// Removed reports whether u shrank the array.
func (u Update) Removed() bool { return u.Kind == UpdateRemoved }

// Resized reports whether u is a placement or a removal.
func (u Update) Resized() bool { return u.Kind != UpdateChanged }

func (u Update) String() string {
	switch u.Kind {
	case UpdatePlaced:
		return fmt.Sprintf("place[%d]=%g", u.Index, u.New)
	case UpdateRemoved:
		return fmt.Sprintf("remove[%d]=%g", u.Index, u.Old)
	default:
		return fmt.Sprintf("[%d] %g->%g", u.Index, u.Old, u.New)
	}
}

// SameValue reports whether a and b are the same value, treating every NaN
// as equal to every other NaN. Signed zeros compare equal.
func SameValue(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

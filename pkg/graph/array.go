package graph

// Array is the capability of nodes that produce an array (or scalar) of
// numbers in every state.
type Array interface {
	Node

	// Shape returns the declared shape; the first extent may be Dynamic.
	Shape() Shape
	// Integral reports whether every value the node can take is an integer.
	Integral() bool
	// ValueRange returns a conservative bound on the node's values in any state.
	ValueRange() Range

	// Size returns the current number of elements in s.
	Size(s *State) int
	// Buffer returns the current values in s. The slice must not be modified.
	Buffer(s *State) []float64
	// Diff returns the updates recorded in s since the last commit.
	Diff(s *State) []Update
}

// SizeBounded is implemented by dynamic arrays that know the largest size
// they can reach. Reductions use it to bound their value range.
type SizeBounded interface {
	MaxSize() int
}

// MaxSize returns the largest size a can reach, or -1 if unknown.
func MaxSize(a Array) int {
	shape := a.Shape()
	if len(shape) == 0 || shape[0] != Dynamic {
		n := 1
		for _, e := range shape {
			n *= e
		}
		return n
	}
	if sb, ok := a.(SizeBounded); ok {
		return sb.MaxSize()
	}
	return -1
}

// ArrayOutput provides the buffer-backed half of the Array capability.
// Node types embed it and supply InitializeState, Propagate, Integral and
// ValueRange themselves.
type ArrayOutput struct {
	NodeBase
	ShapeInfo
}

// NewArrayOutput returns an output with the given shape bookkeeping.
func NewArrayOutput(si ShapeInfo) ArrayOutput { return ArrayOutput{ShapeInfo: si} }

// Output returns the node's writable buffer in s.
func (a *ArrayOutput) Output(s *State) *Buffer { return s.Buffer(a.Handle()) }

// Size returns the current number of elements in s.
func (a *ArrayOutput) Size(s *State) int { return s.Buffer(a.Handle()).Len() }

// Buffer returns the current values in s.
func (a *ArrayOutput) Buffer(s *State) []float64 { return s.Buffer(a.Handle()).Values() }

// Diff returns the updates recorded in s since the last commit.
func (a *ArrayOutput) Diff(s *State) []Update { return s.Buffer(a.Handle()).Diff() }

// Commit accepts the node's pending updates in s.
func (a *ArrayOutput) Commit(s *State) { s.Buffer(a.Handle()).Commit() }

// Revert undoes the node's pending updates in s.
func (a *ArrayOutput) Revert(s *State) { s.Buffer(a.Handle()).Revert() }

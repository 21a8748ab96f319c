package graph

import (
	"slices"

	"github.com/google/uuid"
)

// State is one independent evaluation context over a frozen graph.
//
// It stores one [Buffer] per node. States never share buffers, so different
// states over the same graph can be evaluated concurrently. A single State
// is not safe for concurrent use.
type State struct {
	id      uuid.UUID
	graph   *Graph
	buffers []*Buffer

	touched   []Handle
	isTouched []bool
}

func newState(g *Graph) *State {
	return &State{
		id:        uuid.New(),
		graph:     g,
		buffers:   make([]*Buffer, g.Len()),
		isTouched: make([]bool, g.Len()),
	}
}

// ID returns the state's unique identifier, used in logs and diagnostics.
func (s *State) ID() uuid.UUID { return s.id }

// Graph returns the graph the state evaluates.
func (s *State) Graph() *Graph { return s.graph }

// Array is shorthand for the Array capability of a predecessor. Handles
// passed here were validated when the calling node was constructed.
func (s *State) Array(h Handle) Array { return s.graph.mustArray(h) }

// Init allocates the buffer of the node at h, taking ownership of values.
// Any previous buffer of that node is discarded.
func (s *State) Init(h Handle, values []float64) *Buffer {
	n, _ := s.graph.Node(h)
	b := &Buffer{
		values:  values,
		cursors: make([]int, len(n.Predecessors())),
		state:   s,
		handle:  h,
	}
	s.buffers[h] = b
	return b
}

// Initialized reports whether the node at h has a buffer in this state.
func (s *State) Initialized(h Handle) bool {
	return int(h) < len(s.buffers) && s.buffers[h] != nil
}

// Buffer returns the buffer of the node at h, or nil before initialization.
func (s *State) Buffer(h Handle) *Buffer { return s.buffers[h] }

// Touched returns the nodes that recorded updates or consumed predecessor
// updates since the last commit or revert.
func (s *State) Touched() []Handle { return s.touched }

func (s *State) touch(h Handle) {
	if !s.isTouched[h] {
		s.isTouched[h] = true
		s.touched = append(s.touched, h)
	}
}

func (s *State) clearTouched() {
	for _, h := range s.touched {
		s.isTouched[h] = false
	}
	s.touched = s.touched[:0]
}

// changed reports whether the node at h has pending updates.
func (s *State) changed(h Handle) bool {
	b := s.buffers[h]
	return b != nil && len(b.diff) > 0
}

// Buffer holds one node's values and its updates since the last commit.
//
// Only the owning node writes to its buffer. Every write that changes a
// value appends an [Update]; writes that store the current value are not
// recorded.
type Buffer struct {
	values  []float64
	diff    []Update
	cursors []int // per predecessor slot: updates already consumed

	count, committedCount int

	state  *State
	handle Handle
}

// Values returns the current values. The slice must not be modified.
func (b *Buffer) Values() []float64 { return b.values }

// Len returns the current number of elements.
func (b *Buffer) Len() int { return len(b.values) }

// At returns the value at index i.
func (b *Buffer) At(i int) float64 { return b.values[i] }

// Diff returns the updates recorded since the last commit, oldest first.
// The slice must not be modified.
func (b *Buffer) Diff() []Update { return b.diff }

// Set stores v at index i and records the change. It reports whether the
// value changed; storing NaN over NaN is not a change.
func (b *Buffer) Set(i int, v float64) bool {
	old := b.values[i]
	if SameValue(old, v) {
		return false
	}
	b.values[i] = v
	b.record(Update{Index: i, Old: old, New: v})
	return true
}

// Emplace appends v and records a placement.
func (b *Buffer) Emplace(v float64) {
	b.record(Placement(len(b.values), v))
	b.values = append(b.values, v)
}

// Pop removes the last element and records a removal.
func (b *Buffer) Pop() {
	i := len(b.values) - 1
	b.record(Removal(i, b.values[i]))
	b.values = b.values[:i]
}

// Resize shrinks or grows the buffer to n elements, computing new elements
// with at.
func (b *Buffer) Resize(n int, at func(i int) float64) {
	for len(b.values) > n {
		b.Pop()
	}
	for len(b.values) < n {
		b.Emplace(at(len(b.values)))
	}
}

// Assign makes the buffer equal to values, recording only the differences.
func (b *Buffer) Assign(values []float64) {
	n := min(len(values), len(b.values))
	for i := range n {
		b.Set(i, values[i])
	}
	b.Resize(len(values), func(i int) float64 { return values[i] })
}

// Consume returns the part of diff not yet processed from predecessor slot
// k and marks it processed. Nodes call it once per predecessor during
// Propagate; the cursors are reset by Commit and Revert.
func (b *Buffer) Consume(k int, diff []Update) []Update {
	c := b.cursors[k]
	if c > len(diff) {
		c = 0
	}
	if len(diff) > c {
		b.cursors[k] = len(diff)
		b.state.touch(b.handle)
	}
	return diff[c:]
}

// Count returns the node's auxiliary counter. Nodes use it for running
// tallies over their inputs, such as the number of zero elements.
func (b *Buffer) Count() int { return b.count }

// InitCount sets the counter as part of the committed baseline. Call it
// from InitializeState only.
func (b *Buffer) InitCount(n int) {
	b.count, b.committedCount = n, n
}

// AddCount adjusts the counter by delta. The change is undone by Revert.
func (b *Buffer) AddCount(delta int) {
	if delta == 0 {
		return
	}
	b.count += delta
	b.state.touch(b.handle)
}

// Commit accepts the pending updates as the new baseline.
func (b *Buffer) Commit() {
	b.diff = b.diff[:0]
	b.committedCount = b.count
	clear(b.cursors)
}

// Revert undoes the pending updates, newest first, and clears them.
func (b *Buffer) Revert() {
	for _, u := range slices.Backward(b.diff) {
		switch u.Kind {
		case UpdatePlaced:
			b.values = b.values[:len(b.values)-1]
		case UpdateRemoved:
			b.values = append(b.values, u.Old)
		default:
			b.values[u.Index] = u.Old
		}
	}
	b.diff = b.diff[:0]
	b.count = b.committedCount
	clear(b.cursors)
}

func (b *Buffer) record(u Update) {
	b.state.touch(b.handle)
	b.diff = append(b.diff, u)
}

package graph

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/exprgraph/pkg/errors"
)

// Graph is the arena owning every node of an expression DAG.
//
// Nodes are appended with [Graph.Add] and never removed. Edges are implied by
// each node's predecessor list; [Graph.AddPredecessor] appends one more edge
// to an existing node and is only valid before the graph is frozen.
//
// The zero value is not usable - use New.
type Graph struct {
	nodes  []Node
	arrays []Array // nil where the node is not an Array
	succ   [][]Handle
	labels []string

	frozen bool
	order  []Handle

	logger *log.Logger
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used for freeze and evaluation diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Logger returns the graph's logger. It is never nil.
func (g *Graph) Logger() *log.Logger { return g.logger }

// Add registers n with the given predecessors and returns its handle.
//
// Constructors call Add only after validating their inputs, so a failing
// constructor leaves the graph unchanged. Add returns a FROZEN error once a
// state has been created, UNKNOWN_NODE for predecessors that are not in the
// graph, and INVALID_INPUT if n already belongs to a graph.
func (g *Graph) Add(n Node, preds ...Handle) (Handle, error) {
	if g.frozen {
		return InvalidHandle, errors.New(errors.ErrCodeFrozen, "cannot add nodes to a frozen graph")
	}
	b := n.base()
	if b.graph != nil {
		return InvalidHandle, errors.New(errors.ErrCodeInvalidInput, "node already belongs to a graph (handle %d)", b.handle)
	}
	for _, p := range preds {
		if !g.contains(p) {
			return InvalidHandle, errors.New(errors.ErrCodeUnknownNode, "unknown predecessor %d", p)
		}
	}

	h := Handle(len(g.nodes))
	b.register(g, h, preds)
	g.nodes = append(g.nodes, n)
	a, _ := n.(Array)
	g.arrays = append(g.arrays, a)
	g.succ = append(g.succ, nil)
	g.labels = append(g.labels, "")
	for _, p := range preds {
		g.succ[p] = append(g.succ[p], h)
	}
	return h, nil
}

// AddPredecessor appends pred to the predecessor list of the node at h.
// It is only valid before the graph is frozen.
func (g *Graph) AddPredecessor(h, pred Handle) error {
	if g.frozen {
		return errors.New(errors.ErrCodeFrozen, "cannot add predecessors after the graph is frozen")
	}
	if !g.contains(h) {
		return errors.New(errors.ErrCodeUnknownNode, "unknown node %d", h)
	}
	if !g.contains(pred) {
		return errors.New(errors.ErrCodeUnknownNode, "unknown predecessor %d", pred)
	}
	b := g.nodes[h].base()
	b.preds = append(b.preds, pred)
	g.succ[pred] = append(g.succ[pred], h)
	return nil
}

func (g *Graph) contains(h Handle) bool { return h >= 0 && int(h) < len(g.nodes) }

// Node returns the node at h and true, or nil and false if h is unknown.
func (g *Graph) Node(h Handle) (Node, bool) {
	if !g.contains(h) {
		return nil, false
	}
	return g.nodes[h], true
}

// Array returns the Array capability of the node at h.
// Returns UNKNOWN_NODE for unknown handles and NOT_ARRAY for nodes that do
// not produce arrays.
func (g *Graph) Array(h Handle) (Array, error) {
	if !g.contains(h) {
		return nil, errors.New(errors.ErrCodeUnknownNode, "unknown node %d", h)
	}
	if g.arrays[h] == nil {
		return nil, errors.New(errors.ErrCodeNotArray, "node %d is not an array", h)
	}
	return g.arrays[h], nil
}

// mustArray is the hot-path lookup used during evaluation, where handles
// were validated at construction time.
func (g *Graph) mustArray(h Handle) Array { return g.arrays[h] }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Successors returns the handles of nodes reading h. The slice must not be modified.
func (g *Graph) Successors(h Handle) []Handle {
	if !g.contains(h) {
		return nil
	}
	return g.succ[h]
}

// SetLabel attaches a display name to the node at h.
func (g *Graph) SetLabel(h Handle, label string) {
	if g.contains(h) {
		g.labels[h] = label
	}
}

// Label returns the display name of the node at h, or "" if none was set.
func (g *Graph) Label(h Handle) string {
	if !g.contains(h) {
		return ""
	}
	return g.labels[h]
}

// Frozen reports whether the graph accepts no more nodes or edges.
func (g *Graph) Frozen() bool { return g.frozen }

// Freeze validates the graph, fixes its topological order and rejects any
// further structural change. Freezing an already frozen graph is a no-op.
//
// Returns GRAPH_CYCLE if appended predecessors introduced a cycle.
func (g *Graph) Freeze() error {
	if g.frozen {
		return nil
	}
	order, err := g.topologicalOrder()
	if err != nil {
		return err
	}
	g.order = order
	g.frozen = true
	g.logger.Debug("graph frozen", "nodes", len(g.nodes))
	return nil
}

// Order returns the topological order fixed by Freeze, predecessors first.
// Returns nil before the graph is frozen.
func (g *Graph) Order() []Handle { return g.order }

// topologicalOrder runs a depth-first search over predecessor edges with
// white/gray/black coloring. Handles are visited in ascending order so the
// result is deterministic.
func (g *Graph) topologicalOrder() ([]Handle, error) {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(g.nodes))
	order := make([]Handle, 0, len(g.nodes))
	var cycleAt Handle = InvalidHandle

	var dfs func(h Handle)
	dfs = func(h Handle) {
		color[h] = gray
		for _, p := range g.nodes[h].Predecessors() {
			switch color[p] {
			case white:
				dfs(p)
			case gray:
				cycleAt = p
			}
			if cycleAt != InvalidHandle {
				return
			}
		}
		color[h] = black
		order = append(order, h)
	}

	for h := range g.nodes {
		if color[h] == white {
			dfs(Handle(h))
			if cycleAt != InvalidHandle {
				return nil, errors.New(errors.ErrCodeGraphCycle, "graph contains a cycle through node %d", cycleAt)
			}
		}
	}
	return order, nil
}

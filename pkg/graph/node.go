package graph

import "slices"

// Handle identifies a node within its [Graph]. Handles are dense indices
// assigned in insertion order.
type Handle int

// InvalidHandle is the handle of a node that was never added to a graph.
const InvalidHandle Handle = -1

// Node is an element of the expression DAG.
//
// Implementations embed [NodeBase] (usually through [ArrayOutput]) to get
// their handle and predecessor list; the unexported method keeps node
// registration under the graph's control.
type Node interface {
	// Handle returns the node's index in its graph.
	Handle() Handle
	// Predecessors returns the handles this node reads, in construction order.
	Predecessors() []Handle

	InitializeState(s *State) error
	Propagate(s *State) error
	Commit(s *State)
	Revert(s *State)

	base() *NodeBase
}

// NodeBase carries the arena bookkeeping of a node.
// The zero value is an unregistered node.
type NodeBase struct {
	handle Handle
	preds  []Handle
	graph  *Graph
}

// Handle returns the node's index, or [InvalidHandle] before registration.
func (b *NodeBase) Handle() Handle {
	if b.graph == nil {
		return InvalidHandle
	}
	return b.handle
}

// Predecessors returns the predecessor handles. The slice must not be modified.
func (b *NodeBase) Predecessors() []Handle { return b.preds }

// Graph returns the graph the node was added to, or nil.
func (b *NodeBase) Graph() *Graph { return b.graph }

func (b *NodeBase) base() *NodeBase { return b }

func (b *NodeBase) register(g *Graph, h Handle, preds []Handle) {
	b.graph = g
	b.handle = h
	b.preds = slices.Clone(preds)
}

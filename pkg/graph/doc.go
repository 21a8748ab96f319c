// Package graph provides the node arena and evaluation-context machinery for
// incremental expression graphs.
//
// # Overview
//
// An expression graph is a DAG whose leaves are decision variables and whose
// roots are objectives or constraints. Local search proposes a small change
// to a leaf, evaluates the effect on the roots, and then keeps or discards
// the change, thousands of times per second. Every node therefore supports
// four operations per evaluation context:
//
//   - InitializeState: compute the output from the predecessors' initial values
//   - Propagate: recompute only what changed upstream, recording [Update]s
//   - Commit: accept the pending updates as the new baseline
//   - Revert: undo the pending updates
//
// # Arena and Handles
//
// A [Graph] owns every node. Nodes refer to their predecessors by [Handle],
// an index into the arena, and look up the [Array] capability of a
// predecessor with [Graph.Array]. Nodes are added with [Graph.Add] after
// their constructor has validated its inputs, so a failed construction never
// leaves a partially registered node behind.
//
// # States
//
// A [State] is one independent evaluation context. It holds, per node, a
// [Buffer]: the node's current values and the updates recorded since the
// last commit. [Graph.NewState] freezes the graph (no more nodes or edges),
// computes a topological order, and initializes every node in that order.
//
//	g := graph.New()
//	// ... add nodes with the constructors in package nodes ...
//	s, err := g.NewState()
//	x.Set(s, 1, 5)           // change a leaf
//	err = g.Propagate(s)     // update dependents
//	g.Revert(s)              // or g.Commit(s)
//
// # Updates
//
// An [Update] records one element change: position, old value, new value
// and an [UpdateKind]. Dynamically sized arrays also record placements
// (growth) and removals (shrinking), told apart by Kind so that NaN and the
// infinities remain ordinary values. Positions within one diff are neither
// unique nor sorted; consumers replay diffs in order.
//
// Each node consumes its predecessors' diffs through [Buffer.Consume], which
// remembers how much of every predecessor diff was already processed. This
// makes repeated calls to [Graph.Propagate] between commits safe.
//
// # Concurrency
//
// A Graph is read-only once frozen. A single State must not be used from
// more than one goroutine at a time, but distinct states over the same graph
// share no mutable data and can be evaluated in parallel with [RunStates].
package graph

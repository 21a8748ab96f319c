// Package nodes implements the leaf and operator nodes of an expression
// graph built on package graph.
//
// # Leaves
//
// [Constant] holds the same values in every state. [Variable] holds values
// chosen per state by a search procedure through Set, Assign, Grow and
// Shrink; bounds and integrality are checked on every write.
//
// # Operators
//
// Four operator families compute new arrays from existing ones:
//
//   - [UnaryOp]: elementwise absolute value, negation and square
//   - [BinaryOp]: elementwise arithmetic, logic, comparison and extrema over
//     two arrays of equal shape
//   - [NaryOp]: elementwise sum, product, maximum or minimum over one or
//     more arrays; more operands may be appended before first use
//   - [Reduce]: sum, product, maximum, minimum or all over every element
//     of one array, producing a scalar
//
// Each operator derives a conservative value range and an integrality flag
// from its inputs at construction time.
//
// # Incremental Evaluation
//
// Elementwise operators recompute only the positions named in their
// predecessors' diffs, and grow or shrink with dynamic inputs. Sums and
// products apply deltas; extrema and all-reductions adopt improving values
// and fall back to a rescan only when the current extremum gets worse.
//
// # Example
//
//	g := graph.New()
//	x, _ := nodes.NewVariable(g, graph.Shape{3}, nodes.WithInitial(1, 2, 3))
//	total, _ := nodes.NewSum(g, x.Handle())
//	s, _ := g.NewState()
//	_ = x.Set(s, 0, 4)
//	_ = g.Propagate(s)
//	fmt.Println(total.Buffer(s)) // [9]
package nodes

// Package pkg provides the libraries behind exprgraph, an incremental
// evaluator for array-valued expression graphs.
//
// # Overview
//
// A model is a DAG whose leaves are decision variables and constants and
// whose inner nodes are operators: elementwise unary and binary transforms,
// n-ary combinations across sibling arrays, and full-array reductions. A
// local search changes a few variables, propagates the change through only
// the nodes that depend on them, inspects the result, and then commits or
// reverts it. The packages are organized as follows:
//
//  1. [graph] - Node arena, shapes, value ranges, per-state buffers and the
//     propagate/commit/revert scheduler
//  2. [nodes] - Constants, variables and the operator node family
//  3. [model] - TOML/YAML model files and scripted move replay
//  4. [render] - DOT, SVG and JSON export
//  5. [errors] and [observability] - Coded errors and metrics hooks
//
// # Architecture
//
//	model file (TOML / YAML)
//	         ↓
//	    [model] package (parse, build)
//	         ↓
//	    [graph] + [nodes] packages (initialize, propagate, commit / revert)
//	         ↓
//	    [render] package (DOT / SVG / JSON)
//
// # Quick Start
//
// Build a graph by hand and evaluate one move:
//
//	g := graph.New()
//	x, _ := nodes.NewVariable(g, graph.Shape{3}, nodes.WithBounds(0, 10))
//	sq, _ := nodes.NewSquare(g, x.Handle())
//	total, _ := nodes.NewSum(g, sq.Handle())
//
//	s, _ := g.NewState()
//	_ = x.Set(s, 1, 4)
//	_ = g.Propagate(s)
//	fmt.Println(total.Buffer(s)) // [16]
//	g.Revert(s)
//	fmt.Println(total.Buffer(s)) // [0]
//
// Or load a model file and replay its moves:
//
//	m, _ := model.Load(ctx, "knapsack.toml")
//	b, _ := m.Build()
//	results, _ := b.RunAll(ctx, 4, 2)
//
// [graph]: github.com/matzehuels/exprgraph/pkg/graph
// [nodes]: github.com/matzehuels/exprgraph/pkg/nodes
// [model]: github.com/matzehuels/exprgraph/pkg/model
// [render]: github.com/matzehuels/exprgraph/pkg/render
// [errors]: github.com/matzehuels/exprgraph/pkg/errors
// [observability]: github.com/matzehuels/exprgraph/pkg/observability
package pkg

// Package render exports expression graphs for inspection.
//
// # Overview
//
// This package turns a [graph.Graph] into formats people and tools can read:
//
//   - Graphviz DOT source ([ToDOT]), optionally annotated with the values of
//     one evaluation state
//   - SVG rendered in-process from DOT ([RenderSVG])
//   - A JSON document of nodes and edges ([ToDocument], [MarshalDocument])
//
// # Node-Link Diagrams
//
// Nodes appear as rounded boxes labeled with their name and operation;
// edges point from each predecessor to the node that reads it, bottom to
// top, so leaves sit at the bottom and objectives at the top.
//
//	dot := render.ToDOT(g, render.Options{State: s, Detailed: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is needed.
package render

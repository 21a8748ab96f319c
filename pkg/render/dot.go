package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/exprgraph/pkg/graph"
)

// Options configures DOT generation.
type Options struct {
	// State annotates every node with its current values when set.
	State *graph.State

	// Detailed adds shape, value range and integrality to node labels.
	Detailed bool

	// MaxValues caps the number of values shown per node (default 8).
	MaxValues int
}

// ToDOT converts an expression graph to Graphviz DOT format. Edges point
// from a predecessor to the node reading it. Leaves are drawn grey.
//
// The resulting DOT string can be rendered using [RenderSVG].
func ToDOT(g *graph.Graph, opts Options) string {
	if opts.MaxValues <= 0 {
		opts.MaxValues = 8
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for i := range g.Len() {
		h := graph.Handle(i)
		n, _ := g.Node(h)
		attrs := []string{"label=" + strconv.Quote(fmtLabel(g, h, n, opts))}
		if len(n.Predecessors()) == 0 {
			attrs = append(attrs, "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", nodeID(h), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for i := range g.Len() {
		h := graph.Handle(i)
		n, _ := g.Node(h)
		for _, p := range n.Predecessors() {
			fmt.Fprintf(&buf, "  %s -> %s;\n", nodeID(p), nodeID(h))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(h graph.Handle) string { return "n" + strconv.Itoa(int(h)) }

// describe returns the operation name of a node, e.g. "Sum" or "Variable(3,)".
func describe(n graph.Node) string {
	if s, ok := n.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", n)
}

func fmtLabel(g *graph.Graph, h graph.Handle, n graph.Node, opts Options) string {
	lines := []string{describe(n)}
	if name := g.Label(h); name != "" {
		lines = []string{name, describe(n)}
	}

	a, err := g.Array(h)
	if err != nil {
		return strings.Join(lines, "\n")
	}
	if opts.Detailed {
		lines = append(lines,
			"shape: "+a.Shape().String(),
			"range: "+a.ValueRange().String(),
			"integral: "+strconv.FormatBool(a.Integral()),
		)
	}
	if opts.State != nil && opts.State.Initialized(h) {
		lines = append(lines, fmtValues(a.Buffer(opts.State), opts.MaxValues))
	}
	return strings.Join(lines, "\n")
}

func fmtValues(values []float64, limit int) string {
	shown := values[:min(len(values), limit)]
	parts := make([]string, len(shown))
	for i, v := range shown {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	if len(values) > limit {
		parts = append(parts, fmt.Sprintf("... (%d more)", len(values)-limit))
	}
	return "= [" + strings.Join(parts, " ") + "]"
}

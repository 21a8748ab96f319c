package render

import (
	"encoding/json"

	"github.com/matzehuels/exprgraph/pkg/graph"
)

// Document is the JSON form of an expression graph. Node IDs match the
// identifiers used by [ToDOT].
type Document struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one graph node in a [Document].
type Node struct {
	ID       string    `json:"id"`
	Label    string    `json:"label,omitempty"`
	Op       string    `json:"op"`
	Shape    string    `json:"shape,omitempty"`
	Range    string    `json:"range,omitempty"`
	Integral bool      `json:"integral,omitempty"`
	Values   []float64 `json:"values,omitempty"`
}

// Edge connects a predecessor to the node reading it.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ToDocument converts g to its serialization form. Values are included when
// s is non-nil.
func ToDocument(g *graph.Graph, s *graph.State) Document {
	doc := Document{Nodes: make([]Node, 0, g.Len())}
	for i := range g.Len() {
		h := graph.Handle(i)
		n, _ := g.Node(h)
		node := Node{ID: nodeID(h), Label: g.Label(h), Op: describe(n)}
		if a, err := g.Array(h); err == nil {
			node.Shape = a.Shape().String()
			node.Range = a.ValueRange().String()
			node.Integral = a.Integral()
			if s != nil && s.Initialized(h) {
				node.Values = append([]float64{}, a.Buffer(s)...)
			}
		}
		doc.Nodes = append(doc.Nodes, node)
		for _, p := range n.Predecessors() {
			doc.Edges = append(doc.Edges, Edge{From: nodeID(p), To: nodeID(h)})
		}
	}
	return doc
}

// MarshalDocument serializes g as indented JSON.
func MarshalDocument(g *graph.Graph, s *graph.State) ([]byte, error) {
	return json.MarshalIndent(ToDocument(g, s), "", "  ")
}

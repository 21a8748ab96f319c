package model

import (
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/exprgraph/pkg/errors"
	"github.com/matzehuels/exprgraph/pkg/graph"
	"github.com/matzehuels/exprgraph/pkg/nodes"
)

// Built is a model turned into a graph, with its nodes addressable by name.
type Built struct {
	Model *Model
	Graph *graph.Graph

	handles   map[string]graph.Handle
	variables map[string]*nodes.Variable
	kinds     []string
}

// kind describes how a node kind is constructed from its resolved inputs.
type kind struct {
	inputs int // exact input count; -1 for one or more
	build  func(g *graph.Graph, in []graph.Handle, spec NodeSpec) (graph.Array, error)
}

func unary(op nodes.Op) kind {
	return kind{1, func(g *graph.Graph, in []graph.Handle, _ NodeSpec) (graph.Array, error) {
		return nodes.NewUnary(g, op, in[0])
	}}
}

func binary(op nodes.Op) kind {
	return kind{2, func(g *graph.Graph, in []graph.Handle, _ NodeSpec) (graph.Array, error) {
		return nodes.NewBinary(g, op, in[0], in[1])
	}}
}

func nary(op nodes.Op) kind {
	return kind{-1, func(g *graph.Graph, in []graph.Handle, _ NodeSpec) (graph.Array, error) {
		return nodes.NewNary(g, op, in...)
	}}
}

func reduce(op nodes.Op) kind {
	return kind{1, func(g *graph.Graph, in []graph.Handle, spec NodeSpec) (graph.Array, error) {
		var opts []nodes.ReduceOption
		if spec.Init != nil {
			opts = append(opts, nodes.WithInit(*spec.Init))
		}
		return nodes.NewReduce(g, op, in[0], opts...)
	}}
}

var kinds = map[string]kind{
	"constant": {0, buildConstant},
	"variable": {0, buildVariable},

	"absolute": unary(nodes.OpAbsolute),
	"negative": unary(nodes.OpNegative),
	"square":   unary(nodes.OpSquare),

	"add":        binary(nodes.OpAdd),
	"subtract":   binary(nodes.OpSubtract),
	"multiply":   binary(nodes.OpMultiply),
	"and":        binary(nodes.OpAnd),
	"or":         binary(nodes.OpOr),
	"equal":      binary(nodes.OpEqual),
	"less_equal": binary(nodes.OpLessEqual),
	"maximum":    binary(nodes.OpMaximum),
	"minimum":    binary(nodes.OpMinimum),

	"nary_add":      nary(nodes.OpAdd),
	"nary_multiply": nary(nodes.OpMultiply),
	"nary_maximum":  nary(nodes.OpMaximum),
	"nary_minimum":  nary(nodes.OpMinimum),

	"sum":  reduce(nodes.OpAdd),
	"prod": reduce(nodes.OpMultiply),
	"max":  reduce(nodes.OpMaximum),
	"min":  reduce(nodes.OpMinimum),
	"all":  reduce(nodes.OpAnd),
}

func buildConstant(g *graph.Graph, _ []graph.Handle, spec NodeSpec) (graph.Array, error) {
	shape := graph.Shape(spec.Shape)
	if spec.Shape == nil && len(spec.Values) != 1 {
		shape = graph.Shape{len(spec.Values)}
	}
	return nodes.NewConstant(g, shape, spec.Values)
}

func buildVariable(g *graph.Graph, _ []graph.Handle, spec NodeSpec) (graph.Array, error) {
	var opts []nodes.VariableOption
	if spec.Min != nil || spec.Max != nil {
		lo, hi := math.Inf(-1), math.Inf(1)
		if spec.Min != nil {
			lo = *spec.Min
		}
		if spec.Max != nil {
			hi = *spec.Max
		}
		opts = append(opts, nodes.WithBounds(lo, hi))
	}
	if spec.Integral {
		opts = append(opts, nodes.WithIntegral())
	}
	if spec.Values != nil {
		opts = append(opts, nodes.WithInitial(spec.Values...))
	}
	if spec.MaxSize != nil {
		opts = append(opts, nodes.WithMaxSize(*spec.MaxSize))
	}
	return nodes.NewVariable(g, graph.Shape(spec.Shape), opts...)
}

// Kinds returns the node kinds a model file may use, sorted.
func Kinds() []string {
	return slices.Sorted(maps.Keys(kinds))
}

// Build constructs the graph described by m. Nodes are added in file order,
// so inputs must be declared before the nodes reading them.
func (m *Model) Build(opts ...graph.Option) (*Built, error) {
	b := &Built{
		Model:     m,
		Graph:     graph.New(opts...),
		handles:   make(map[string]graph.Handle, len(m.Nodes)),
		variables: make(map[string]*nodes.Variable),
	}
	for i, spec := range m.Nodes {
		if err := b.add(spec); err != nil {
			return nil, errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeInvalidInput), err, "node %d (%s)", i, spec.Name)
		}
	}
	b.Graph.Logger().Debug("model built", "model", m.Name, "nodes", b.Graph.Len())
	return b, nil
}

func (b *Built) add(spec NodeSpec) error {
	if err := errors.ValidateNodeName(spec.Name); err != nil {
		return err
	}
	if _, dup := b.handles[spec.Name]; dup {
		return errors.New(errors.ErrCodeInvalidInput, "duplicate node name %q", spec.Name)
	}
	name := strings.ToLower(spec.Kind)
	k, ok := kinds[name]
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "unknown node kind %q", spec.Kind)
	}
	switch {
	case k.inputs < 0 && len(spec.Inputs) == 0:
		return errors.New(errors.ErrCodePredecessorCount, "%s needs at least one input", name)
	case k.inputs >= 0 && len(spec.Inputs) != k.inputs:
		return errors.New(errors.ErrCodePredecessorCount, "%s needs %d inputs, got %d", name, k.inputs, len(spec.Inputs))
	}

	in := make([]graph.Handle, len(spec.Inputs))
	for i, input := range spec.Inputs {
		h, ok := b.handles[input]
		if !ok {
			return errors.New(errors.ErrCodeUnknownNode, "unknown input %q (inputs must be declared first)", input)
		}
		in[i] = h
	}

	n, err := k.build(b.Graph, in, spec)
	if err != nil {
		return err
	}
	b.handles[spec.Name] = n.Handle()
	b.kinds = append(b.kinds, name)
	b.Graph.SetLabel(n.Handle(), spec.Name)
	if v, ok := n.(*nodes.Variable); ok {
		b.variables[spec.Name] = v
	}
	return nil
}

// Handle returns the handle of the named node.
func (b *Built) Handle(name string) (graph.Handle, bool) {
	h, ok := b.handles[name]
	return h, ok
}

// Kind returns the model kind of the node at h.
func (b *Built) Kind(h graph.Handle) string {
	if int(h) < 0 || int(h) >= len(b.kinds) {
		return ""
	}
	return b.kinds[h]
}

// Variable returns the named variable. Returns UNKNOWN_NODE if no node has
// that name and INVALID_INPUT if the node is not a variable.
func (b *Built) Variable(name string) (*nodes.Variable, error) {
	if v, ok := b.variables[name]; ok {
		return v, nil
	}
	if _, ok := b.handles[name]; ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "node %q is not a variable", name)
	}
	return nil, errors.New(errors.ErrCodeUnknownNode, "unknown node %q", name)
}

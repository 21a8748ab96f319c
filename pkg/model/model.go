// Package model loads expression graphs from TOML or YAML files and replays
// scripted moves against them.
//
// A model file lists nodes in dependency order and, optionally, a sequence
// of moves. Each move changes some variables, propagates, and then either
// commits or reverts:
//
//	name = "example"
//
//	[[nodes]]
//	name = "x"
//	kind = "variable"
//	shape = [3]
//	values = [1, 2, 3]
//
//	[[nodes]]
//	name = "total"
//	kind = "sum"
//	inputs = ["x"]
//
//	[[moves]]
//	action = "commit"
//	set = [{ node = "x", index = 0, value = 4 }]
//
// Shapes use -1 for a dynamic first extent.
package model

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/exprgraph/pkg/errors"
	"github.com/matzehuels/exprgraph/pkg/observability"
)

// Format identifies the encoding of a model file.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFromPath returns the format implied by the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported model file extension: %s", path)
}

// Model is the decoded content of a model file.
type Model struct {
	Name  string     `toml:"name" yaml:"name"`
	Nodes []NodeSpec `toml:"nodes" yaml:"nodes"`
	Moves []Move     `toml:"moves" yaml:"moves"`
}

// NodeSpec declares one node. Which fields apply depends on Kind.
type NodeSpec struct {
	Name   string   `toml:"name" yaml:"name"`
	Kind   string   `toml:"kind" yaml:"kind"`
	Inputs []string `toml:"inputs" yaml:"inputs"`

	// Leaves
	Shape    []int     `toml:"shape" yaml:"shape"`
	Values   []float64 `toml:"values" yaml:"values"`
	Min      *float64  `toml:"min" yaml:"min"`
	Max      *float64  `toml:"max" yaml:"max"`
	Integral bool      `toml:"integral" yaml:"integral"`
	MaxSize  *int      `toml:"max_size" yaml:"max_size"`

	// Reductions
	Init *float64 `toml:"init" yaml:"init"`
}

// Move is one scripted local-search step.
type Move struct {
	Name   string     `toml:"name" yaml:"name"`
	Set    []SetOp    `toml:"set" yaml:"set"`
	Grow   []GrowOp   `toml:"grow" yaml:"grow"`
	Shrink []string   `toml:"shrink" yaml:"shrink"`
	Action MoveAction `toml:"action" yaml:"action"`
}

// SetOp assigns Value to element Index of a variable.
type SetOp struct {
	Node  string  `toml:"node" yaml:"node"`
	Index int     `toml:"index" yaml:"index"`
	Value float64 `toml:"value" yaml:"value"`
}

// GrowOp appends Value to a dynamic variable.
type GrowOp struct {
	Node  string  `toml:"node" yaml:"node"`
	Value float64 `toml:"value" yaml:"value"`
}

// MoveAction decides what happens to a move after propagation.
type MoveAction string

const (
	ActionCommit MoveAction = "commit"
	ActionRevert MoveAction = "revert"
)

func (a MoveAction) normalize() (MoveAction, error) {
	switch MoveAction(strings.ToLower(string(a))) {
	case "", ActionCommit:
		return ActionCommit, nil
	case ActionRevert:
		return ActionRevert, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown move action %q (want commit or revert)", string(a))
}

// Parse decodes a model from data.
func Parse(data []byte, format Format) (*Model, error) {
	var m Model
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode TOML model")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode YAML model")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown model format %q", format)
	}
	for i := range m.Moves {
		action, err := m.Moves[i].Action.normalize()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "move %d", i)
		}
		m.Moves[i].Action = action
	}
	return &m, nil
}

// Load reads and decodes the model file at path. The format is chosen by
// extension.
func Load(ctx context.Context, path string) (m *Model, err error) {
	start := time.Now()
	defer func() {
		nodes := 0
		if m != nil {
			nodes = len(m.Nodes)
		}
		observability.Model().OnLoad(ctx, path, nodes, time.Since(start), err)
	}()

	if err := errors.ValidateModelPath(path); err != nil {
		return nil, err
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "model file not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
	}
	m, err = Parse(data, format)
	if err != nil {
		return nil, err
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

package model

import (
	"context"
	"slices"
	"time"

	"github.com/matzehuels/exprgraph/pkg/errors"
	"github.com/matzehuels/exprgraph/pkg/graph"
	"github.com/matzehuels/exprgraph/pkg/observability"
)

// Result summarizes one replay of the model's moves on one state.
type Result struct {
	StateID   string      `json:"state_id"`
	Committed int         `json:"committed"`
	Reverted  int         `json:"reverted"`
	Nodes     []NodeValue `json:"nodes"`
}

// NodeValue is a snapshot of one node in one state.
type NodeValue struct {
	Name     string    `json:"name"`
	Kind     string    `json:"kind"`
	Shape    string    `json:"shape"`
	Values   []float64 `json:"values"`
	Range    string    `json:"range"`
	Integral bool      `json:"integral"`
}

// Snapshot returns the current values of every node in s, in graph order.
func (b *Built) Snapshot(s *graph.State) []NodeValue {
	out := make([]NodeValue, 0, b.Graph.Len())
	for i := range b.Graph.Len() {
		h := graph.Handle(i)
		a, err := b.Graph.Array(h)
		if err != nil {
			continue
		}
		out = append(out, NodeValue{
			Name:     b.Graph.Label(h),
			Kind:     b.Kind(h),
			Shape:    a.Shape().String(),
			Values:   append([]float64{}, a.Buffer(s)...),
			Range:    a.ValueRange().String(),
			Integral: a.Integral(),
		})
	}
	return out
}

// Run replays every move of the model on s. A move whose mutation or
// propagation fails is reverted and ends the run with its error.
func (b *Built) Run(ctx context.Context, s *graph.State) (*Result, error) {
	res := &Result{StateID: s.ID().String()}
	for i, mv := range b.Model.Moves {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.apply(ctx, s, i, mv); err != nil {
			return nil, err
		}
		if mv.Action == ActionRevert {
			res.Reverted++
		} else {
			res.Committed++
		}
	}
	res.Nodes = b.Snapshot(s)
	return res, nil
}

// RunAll creates n states and replays the moves on each of them, running at
// most workers states at once. Results are in state order.
func (b *Built) RunAll(ctx context.Context, n, workers int) ([]*Result, error) {
	states, err := b.Graph.NewStates(n)
	if err != nil {
		return nil, err
	}
	results := make([]*Result, n)
	index := make(map[*graph.State]int, n)
	for i, s := range states {
		index[s] = i
	}
	err = graph.RunStates(ctx, states, workers, func(ctx context.Context, s *graph.State) error {
		res, err := b.Run(ctx, s)
		if err != nil {
			return err
		}
		results[index[s]] = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (b *Built) apply(ctx context.Context, s *graph.State, i int, mv Move) (err error) {
	g := b.Graph
	start := time.Now()
	defer func() {
		observability.Model().OnMove(ctx, b.Model.Name, string(mv.Action), time.Since(start), err)
	}()

	if err = b.mutate(s, mv); err == nil {
		err = g.Propagate(s)
	}
	if err != nil {
		g.Revert(s)
		return errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeInternal), err, "move %d %s", i, mv.Name)
	}

	switch mv.Action {
	case ActionRevert:
		g.Revert(s)
	default:
		g.Commit(s)
	}
	g.Logger().Debug("move", "state", s.ID(), "move", i, "name", mv.Name, "action", mv.Action, "elapsed", time.Since(start))
	return nil
}

func (b *Built) mutate(s *graph.State, mv Move) error {
	for _, op := range mv.Set {
		v, err := b.Variable(op.Node)
		if err != nil {
			return err
		}
		if err := v.Set(s, op.Index, op.Value); err != nil {
			return err
		}
	}
	for _, op := range mv.Grow {
		v, err := b.Variable(op.Node)
		if err != nil {
			return err
		}
		if err := v.Grow(s, op.Value); err != nil {
			return err
		}
	}
	for _, name := range mv.Shrink {
		v, err := b.Variable(name)
		if err != nil {
			return err
		}
		if err := v.Shrink(s); err != nil {
			return err
		}
	}
	return nil
}

// CheckMoves verifies that every node a move mutates is a variable,
// without applying anything.
func (b *Built) CheckMoves() error {
	for i, mv := range b.Model.Moves {
		names := slices.Clone(mv.Shrink)
		for _, op := range mv.Set {
			names = append(names, op.Node)
		}
		for _, op := range mv.Grow {
			names = append(names, op.Node)
		}
		for _, name := range names {
			if _, err := b.Variable(name); err != nil {
				return errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeInvalidInput), err, "move %d %s", i, mv.Name)
			}
		}
	}
	return nil
}

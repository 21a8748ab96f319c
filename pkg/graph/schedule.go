package graph

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/exprgraph/pkg/errors"
	"github.com/matzehuels/exprgraph/pkg/observability"
)

// NewState freezes the graph and returns a new state with every node
// initialized in topological order.
func (g *Graph) NewState() (*State, error) {
	if err := g.Freeze(); err != nil {
		return nil, err
	}
	s := newState(g)
	start := time.Now()
	err := g.initialize(s)
	observability.Graph().OnInitialize(s.id.String(), len(g.nodes), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("state initialized", "state", s.id, "nodes", len(g.nodes), "elapsed", time.Since(start))
	return s, nil
}

// NewStates returns n independently initialized states.
func (g *Graph) NewStates(n int) ([]*State, error) {
	states := make([]*State, n)
	for i := range states {
		s, err := g.NewState()
		if err != nil {
			return nil, err
		}
		states[i] = s
	}
	return states, nil
}

func (g *Graph) initialize(s *State) error {
	for _, h := range g.order {
		if err := g.nodes[h].InitializeState(s); err != nil {
			return errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeInternal), err, "initialize node %d", h)
		}
	}
	return nil
}

// Propagate brings every node of s up to date with the pending changes of
// its predecessors. Nodes are visited in topological order and only when at
// least one predecessor has pending updates.
//
// A propagation error (for example diverging operand sizes) leaves s with
// partial updates; callers are expected to Revert.
func (g *Graph) Propagate(s *State) error {
	start := time.Now()
	visited := 0
	var err error
	for _, h := range g.order {
		n := g.nodes[h]
		if !anyChanged(s, n.Predecessors()) {
			continue
		}
		visited++
		if err = n.Propagate(s); err != nil {
			err = errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeInternal), err, "propagate node %d", h)
			break
		}
	}
	observability.Graph().OnPropagate(s.id.String(), visited, time.Since(start), err)
	return err
}

func anyChanged(s *State, preds []Handle) bool {
	for _, p := range preds {
		if s.changed(p) {
			return true
		}
	}
	return false
}

// Commit accepts every pending update in s. It costs O(touched nodes).
func (g *Graph) Commit(s *State) {
	touched := len(s.touched)
	for _, h := range s.touched {
		g.nodes[h].Commit(s)
	}
	s.clearTouched()
	observability.Graph().OnCommit(s.id.String(), touched)
}

// Revert undoes every pending update in s. It costs O(pending updates).
func (g *Graph) Revert(s *State) {
	touched := len(s.touched)
	for _, h := range s.touched {
		g.nodes[h].Revert(s)
	}
	s.clearTouched()
	observability.Graph().OnRevert(s.id.String(), touched)
}

// RunStates calls fn for every state concurrently, with at most limit
// goroutines running at once (no limit when limit <= 0). The first error
// cancels the context passed to the remaining calls and is returned.
//
// States must be distinct; fn must only touch the state it is given.
func RunStates(ctx context.Context, states []*State, limit int, fn func(ctx context.Context, s *State) error) error {
	eg, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for _, s := range states {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, s)
		})
	}
	return eg.Wait()
}

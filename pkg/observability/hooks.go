// Package observability provides hooks for metrics and tracing of graph
// evaluation and model runs.
//
// This package enables optional instrumentation without adding hard
// dependencies to the graph core. Consumers register hooks at startup to
// receive events about state initialization, propagation, commits, reverts
// and scripted model moves.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// [PrometheusHooks] implements both interfaces on top of
// prometheus/client_golang and is what the CLI registers when metrics are
// enabled.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    hooks := observability.NewPrometheusHooks(prometheus.DefaultRegisterer)
//	    observability.SetGraphHooks(hooks)
//	    observability.SetModelHooks(hooks)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Graph().OnPropagate(stateID, visited, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Graph Hooks
// =============================================================================

// GraphHooks receives events from graph evaluation. Calls happen on the
// goroutine evaluating the state, so implementations must be safe for
// concurrent use when several states run in parallel.
type GraphHooks interface {
	// OnInitialize records a state initialization over nodeCount nodes.
	OnInitialize(stateID string, nodeCount int, duration time.Duration, err error)

	// OnPropagate records one propagation pass that visited nodes.
	OnPropagate(stateID string, visited int, duration time.Duration, err error)

	// OnCommit records a commit over touched nodes.
	OnCommit(stateID string, touched int)

	// OnRevert records a revert over touched nodes.
	OnRevert(stateID string, touched int)
}

// =============================================================================
// Model Hooks
// =============================================================================

// ModelHooks receives events from model loading and scripted runs.
type ModelHooks interface {
	// OnLoad records a model file load.
	OnLoad(ctx context.Context, path string, nodeCount int, duration time.Duration, err error)

	// OnMove records one scripted move; action is "commit" or "revert".
	OnMove(ctx context.Context, model string, action string, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGraphHooks is a no-op implementation of GraphHooks.
type NoopGraphHooks struct{}

func (NoopGraphHooks) OnInitialize(string, int, time.Duration, error) {}
func (NoopGraphHooks) OnPropagate(string, int, time.Duration, error)  {}
func (NoopGraphHooks) OnCommit(string, int)                           {}
func (NoopGraphHooks) OnRevert(string, int)                           {}

// NoopModelHooks is a no-op implementation of ModelHooks.
type NoopModelHooks struct{}

func (NoopModelHooks) OnLoad(context.Context, string, int, time.Duration, error)    {}
func (NoopModelHooks) OnMove(context.Context, string, string, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	graphHooks GraphHooks = NoopGraphHooks{}
	modelHooks ModelHooks = NoopModelHooks{}
	hooksMu    sync.RWMutex
)

// SetGraphHooks registers custom graph hooks.
// This should be called once at application startup before any state is created.
func SetGraphHooks(h GraphHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		graphHooks = h
	}
}

// SetModelHooks registers custom model hooks.
// This should be called once at application startup before any model is loaded.
func SetModelHooks(h ModelHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		modelHooks = h
	}
}

// Graph returns the registered graph hooks.
func Graph() GraphHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return graphHooks
}

// Model returns the registered model hooks.
func Model() ModelHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return modelHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	graphHooks = NoopGraphHooks{}
	modelHooks = NoopModelHooks{}
}

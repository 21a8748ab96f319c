// Package cli implements the exprgraph command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/exprgraph/internal/config"
	"github.com/matzehuels/exprgraph/pkg/buildinfo"
	"github.com/matzehuels/exprgraph/pkg/cache"
	"github.com/matzehuels/exprgraph/pkg/errors"
	"github.com/matzehuels/exprgraph/pkg/graph"
	"github.com/matzehuels/exprgraph/pkg/model"
	"github.com/matzehuels/exprgraph/pkg/observability"
	"github.com/matzehuels/exprgraph/pkg/render"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "exprgraph"

// Output formats shared by the commands.
const (
	formatText = "text"
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	registry *prometheus.Registry
}

// New creates a CLI logging to w at the level named in cfg.
func New(w io.Writer, cfg config.Config) (*CLI, error) {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return &CLI{Logger: newLogger(w, level), Config: cfg}, nil
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   appName,
		Short: "exprgraph evaluates incremental expression graphs",
		Long: `exprgraph builds array-valued expression graphs from model files and
evaluates them incrementally: a move changes a few variables, propagation
touches only what depends on them, and the move is committed or reverted.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				c.Logger.SetLevel(log.DebugLevel)
			}
			if c.Config.Metrics {
				c.enableMetrics()
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.evalCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// enableMetrics registers Prometheus hooks on a registry owned by this CLI.
// Calling it again is a no-op.
func (c *CLI) enableMetrics() *prometheus.Registry {
	if c.registry != nil {
		return c.registry
	}
	c.registry = prometheus.NewRegistry()
	hooks := observability.NewPrometheusHooks(c.registry)
	observability.SetGraphHooks(hooks)
	observability.SetModelHooks(hooks)
	c.Logger.Debug("metrics enabled")
	return c.registry
}

// =============================================================================
// Model Loading
// =============================================================================

// loadModel reads and builds the model at path with the CLI logger attached
// to the graph.
func (c *CLI) loadModel(ctx context.Context, path string) (*model.Built, error) {
	prog := newProgress(c.Logger)
	m, err := model.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	b, err := m.Build(graph.WithLogger(c.Logger))
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Loaded %s: %d nodes, %d moves", m.Name, b.Graph.Len(), len(m.Moves)))
	return b, nil
}

// =============================================================================
// Rendering
// =============================================================================

// newCache returns the SVG cache under the user's cache directory, or a
// null cache when disabled or when no directory is available.
func (c *CLI) newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("cache disabled", "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// cacheDir returns the cache directory using XDG standard (~/.cache/exprgraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// renderSVG renders dot, reusing a previous rendering of the same source.
func (c *CLI) renderSVG(ctx context.Context, ch cache.Cache, dot string) ([]byte, error) {
	svg, hit, err := cache.GetOrCreate(ctx, ch, cache.Key(formatSVG, dot), 0, func() ([]byte, error) {
		return render.RenderSVG(ctx, dot)
	})
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("svg rendered", "cached", hit, "bytes", len(svg))
	return svg, nil
}

// =============================================================================
// Output Helpers
// =============================================================================

// writeOutput writes data to path, or to the command's stdout if path is
// empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "create output directory")
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	printFile(cmd.ErrOrStderr(), path)
	return nil
}

func validateFormat(format string, allowed ...string) error {
	if slices.Contains(allowed, format) {
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (want one of %v)", format, allowed)
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/exprgraph/pkg/render"
)

type dotOptions struct {
	format   string
	output   string
	detailed bool
	run      bool
	noCache  bool
}

// dotCommand creates the dot command for exporting a model's graph.
func (c *CLI) dotCommand() *cobra.Command {
	opts := dotOptions{format: formatDOT}

	cmd := &cobra.Command{
		Use:   "dot [model]",
		Short: "Export a model's graph as DOT, SVG or JSON",
		Long: `Export a model's graph as DOT, SVG or JSON.

Nodes are annotated with the values of a freshly initialized state. With
--run the model's moves are replayed first, so the values shown are the
final ones. SVG is rendered in-process; Graphviz need not be installed.
Rendered SVG is cached under $XDG_CACHE_HOME/exprgraph.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format, formatDOT, formatSVG, formatJSON); err != nil {
				return err
			}
			return c.runDot(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: dot, svg, json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show shape, range and integrality")
	cmd.Flags().BoolVar(&opts.run, "run", false, "replay the model's moves before exporting")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the SVG cache")

	return cmd
}

func (c *CLI) runDot(cmd *cobra.Command, path string, opts dotOptions) error {
	ctx := cmd.Context()
	b, err := c.loadModel(ctx, path)
	if err != nil {
		return err
	}
	s, err := b.Graph.NewState()
	if err != nil {
		return err
	}
	if opts.run {
		if _, err := b.Run(ctx, s); err != nil {
			return err
		}
	}

	var data []byte
	switch opts.format {
	case formatJSON:
		data, err = render.MarshalDocument(b.Graph, s)
		data = append(data, '\n')
	case formatSVG:
		ch := c.newCache(opts.noCache)
		defer ch.Close()
		data, err = c.renderSVG(ctx, ch, render.ToDOT(b.Graph, render.Options{State: s, Detailed: opts.detailed}))
	default:
		data = []byte(render.ToDOT(b.Graph, render.Options{State: s, Detailed: opts.detailed}))
	}
	if err != nil {
		return err
	}
	return writeOutput(cmd, opts.output, data)
}

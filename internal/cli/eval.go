package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/exprgraph/pkg/model"
)

type evalOptions struct {
	states  int
	workers int
	format  string
	output  string
}

// evalCommand creates the eval command for replaying a model's moves.
func (c *CLI) evalCommand() *cobra.Command {
	opts := evalOptions{states: 1, workers: c.Config.Workers, format: formatText}

	cmd := &cobra.Command{
		Use:   "eval [model]",
		Short: "Replay a model's moves and print the resulting values",
		Long: `Replay a model's moves and print the resulting values.

The model file (TOML or YAML) declares the nodes of an expression graph and
a list of moves. Each move sets, grows or shrinks variables, propagates the
change through the graph, and is then committed or reverted.

With --states N the moves are replayed on N independent states in parallel,
at most --workers at a time (0 means no limit).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format, formatText, formatJSON); err != nil {
				return err
			}
			if opts.states < 1 {
				return fmt.Errorf("--states must be at least 1, got %d", opts.states)
			}
			return c.runEval(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.states, "states", "n", opts.states, "number of independent states to evaluate")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", opts.workers, "states evaluated in parallel (0 = all)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: text, json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func (c *CLI) runEval(cmd *cobra.Command, path string, opts evalOptions) error {
	ctx := cmd.Context()
	b, err := c.loadModel(ctx, path)
	if err != nil {
		return err
	}

	results, err := c.evaluate(ctx, cmd.ErrOrStderr(), b, opts)
	if err != nil {
		return err
	}

	if opts.format == formatJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(cmd, opts.output, append(data, '\n'))
	}
	if opts.output != "" {
		return fmt.Errorf("--output requires --format json")
	}
	printResults(cmd.OutOrStdout(), b, results)
	return nil
}

func (c *CLI) evaluate(ctx context.Context, w io.Writer, b *model.Built, opts evalOptions) ([]*model.Result, error) {
	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, w, fmt.Sprintf("Evaluating %d state(s)...", opts.states))
	spinner.Start()

	results, err := b.RunAll(ctx, opts.states, opts.workers)
	if err != nil {
		spinner.StopWithError("Evaluation failed")
		return nil, err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Evaluated %d state(s)", len(results)))
	return results, nil
}

func printResults(w io.Writer, b *model.Built, results []*model.Result) {
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, StyleTitle.Render(b.Model.Name)+" "+StyleDim.Render("state "+res.StateID))
		printStats(w, len(res.Nodes), res.Committed, res.Reverted)
		for _, n := range res.Nodes {
			printKeyValue(w, n.Name, formatValues(n.Values))
		}
	}
}

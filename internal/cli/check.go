package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/exprgraph/pkg/graph"
	"github.com/matzehuels/exprgraph/pkg/model"
)

// checkCommand creates the check command for validating a model file.
func (c *CLI) checkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [model]",
		Short: "Validate a model and print its nodes",
		Long: `Validate a model and print its nodes.

check builds the graph, initializes one state from the declared values and
verifies that every move mutates only variables. Nothing is propagated.
Each node is listed with its kind, shape, value range and integrality.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd, args[0])
		},
	}
	return cmd
}

func (c *CLI) runCheck(cmd *cobra.Command, path string) error {
	w := cmd.OutOrStdout()
	b, err := c.loadModel(cmd.Context(), path)
	if err != nil {
		printError(w, "%s is invalid", path)
		return err
	}
	if err := b.CheckMoves(); err != nil {
		printError(w, "%s has invalid moves", path)
		return err
	}
	if _, err := b.Graph.NewState(); err != nil {
		printError(w, "%s cannot be initialized", path)
		return err
	}

	printSuccess(w, "%s: %d nodes, %d moves", b.Model.Name, b.Graph.Len(), len(b.Model.Moves))
	printNodes(w, b)
	printMoves(w, b.Model.Moves)
	return nil
}

func printNodes(w io.Writer, b *model.Built) {
	for i := range b.Graph.Len() {
		h := graph.Handle(i)
		a, err := b.Graph.Array(h)
		if err != nil {
			continue
		}
		detail := fmt.Sprintf("%-10s %-8s %s", b.Kind(h), a.Shape(), a.ValueRange())
		if a.Integral() {
			detail += " integral"
		}
		printKeyValue(w, b.Graph.Label(h), detail)
	}
}

func printMoves(w io.Writer, moves []model.Move) {
	if len(moves) == 0 {
		printWarning(w, "no moves declared")
		return
	}
	printInfo(w, "moves")
	for i, mv := range moves {
		name := mv.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		printDetail(w, "%s: %d set, %d grow, %d shrink, %s", name, len(mv.Set), len(mv.Grow), len(mv.Shrink), mv.Action)
	}
}

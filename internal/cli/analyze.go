package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/graphsim/fuzzygraph/pkg/analysis"
	"github.com/graphsim/fuzzygraph/pkg/editor"
	"github.com/graphsim/fuzzygraph/pkg/errors"
	"github.com/graphsim/fuzzygraph/pkg/fuzzy"
	"github.com/graphsim/fuzzygraph/pkg/graph"
)

// readGraphArg reads a graph file; "-" reads standard input.
func readGraphArg(cmd *cobra.Command, path string) (graph.GraphData, error) {
	if path == "-" {
		return graph.ReadGraph(cmd.InOrStdin())
	}
	return graph.ReadGraphFile(path)
}

// boundGraph imports d the way the editor does: memberships are clamped and
// every edge weight is capped by t, so all commands send the same graph.
func boundGraph(d graph.GraphData, t fuzzy.TNorm, name string) (graph.GraphData, error) {
	g := graph.New(graph.SlotLeft, nil)
	if err := g.Load(d, t); err != nil {
		return graph.GraphData{}, fmt.Errorf("load %s: %w", name, err)
	}
	return graph.Serialize(g, ""), nil
}

func boundPair(left, right graph.GraphData, t fuzzy.TNorm, args []string) (graph.GraphData, graph.GraphData, error) {
	l, err := boundGraph(left, t, args[0])
	if err != nil {
		return l, graph.GraphData{}, err
	}
	r, err := boundGraph(right, t, args[1])
	return l, r, err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSequence renders one contraction sequence as "(a b) → (c d)".
func formatSequence(seq [][2]string) string {
	parts := make([]string, len(seq))
	for i, p := range seq {
		parts[i] = "(" + p[0] + " " + p[1] + ")"
	}
	return strings.Join(parts, " → ")
}

// =============================================================================
// twinwidth
// =============================================================================

func (c *CLI) twinWidthCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "twinwidth FILE",
		Short: "Compute the twin-width of a fuzzy graph",
		Long: `Compute the twin-width of the graph in FILE ("-" for stdin).

The t-norm stored in the file is used unless --tnorm is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := readGraphArg(cmd, args[0])
			if err != nil {
				return err
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			t := cfg.TNorm()
			if d.TNorm != "" && c.flags.tnorm == "" {
				t = d.TNorm
			}
			if d, err = boundGraph(d, t, args[0]); err != nil {
				return err
			}

			client, store, err := c.newClient(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := withSpinner(ctx, "Computing twin-width...", func(ctx context.Context) (*analysis.TwinWidthResult, error) {
				return client.ComputeTwinWidth(ctx, d, t)
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printKeyValue("Twin-width", formatValue(res.Value))
			printKeyValue("T-norm", t.DisplayName())
			for i, seq := range res.Sequences {
				printDetail("sequence %d: %s", i+1, formatSequence(seq))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw result as JSON")
	return cmd
}

// =============================================================================
// isomorphism / similarity
// =============================================================================

func (c *CLI) isomorphismCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "isomorphism LEFT RIGHT",
		Short: "Check whether two fuzzy graphs are isomorphic",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			left, right, err := readPair(cmd, args)
			if err != nil {
				return err
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if left, right, err = boundPair(left, right, cfg.TNorm(), args); err != nil {
				return err
			}
			client, store, err := c.newClient(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			iso, err := withSpinner(ctx, "Checking isomorphism...", func(ctx context.Context) (*analysis.Isomorphism, error) {
				return client.CheckIsomorphism(ctx, left, right)
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), iso)
			}
			if !iso.Isomorphic {
				printInfo("The graphs are %s isomorphic", StyleWarning.Render("not"))
				return nil
			}
			printSuccess("The graphs are isomorphic")
			for i, m := range iso.Mappings {
				printDetail("mapping %d: %s", i+1, formatMapping(m))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw result as JSON")
	return cmd
}

func formatMapping(m map[string]string) string {
	left := make([]string, 0, len(m))
	for k := range m {
		left = append(left, k)
	}
	slices.Sort(left)
	parts := make([]string, len(left))
	for i, k := range left {
		parts[i] = k + "→" + m[k]
	}
	return strings.Join(parts, " ")
}

func (c *CLI) similarityCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "similarity LEFT RIGHT",
		Short: "Compute the similarity of two fuzzy graphs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			left, right, err := readPair(cmd, args)
			if err != nil {
				return err
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if left, right, err = boundPair(left, right, cfg.TNorm(), args); err != nil {
				return err
			}
			client, store, err := c.newClient(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			v, err := withSpinner(ctx, "Computing similarity...", func(ctx context.Context) (analysis.Value, error) {
				return client.ComputeSimilarity(ctx, left, right, cfg.TNorm())
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"similarity": v, "tnorm": cfg.TNorm()})
			}
			printKeyValue("Similarity", formatValue(v))
			printKeyValue("T-norm", cfg.TNorm().DisplayName())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw result as JSON")
	return cmd
}

func readPair(cmd *cobra.Command, args []string) (graph.GraphData, graph.GraphData, error) {
	if args[0] == "-" && args[1] == "-" {
		return graph.GraphData{}, graph.GraphData{}, errors.New(errors.ErrCodeInvalidArgument, "only one graph can be read from stdin")
	}
	left, err := readGraphArg(cmd, args[0])
	if err != nil {
		return left, graph.GraphData{}, err
	}
	right, err := readGraphArg(cmd, args[1])
	return left, right, err
}

// =============================================================================
// compare
// =============================================================================

type compareOutput struct {
	TNorm fuzzy.TNorm `json:"tnorm"`
	editor.Results
	Errors map[editor.Field]string `json:"errors,omitempty"`
}

func (c *CLI) compareCommand() *cobra.Command {
	var (
		asJSON bool
		iso    bool
	)
	cmd := &cobra.Command{
		Use:   "compare LEFT RIGHT",
		Short: "Compute twin-width of both graphs and their similarity",
		Long: `Load LEFT and RIGHT into an editor and run the compute flow: twin-width of
each graph, then their similarity. A failed request marks its result as X
without stopping the others.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			left, right, err := readPair(cmd, args)
			if err != nil {
				return err
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			client, store, err := c.newClient(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			ed := c.newEditor(cfg, client)
			if err := ed.Load(graph.SlotLeft, left); err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			if err := ed.Load(graph.SlotRight, right); err != nil {
				return fmt.Errorf("load %s: %w", args[1], err)
			}

			prog := newProgress(c.Logger)
			computeErr := runSpinner(ctx, "Computing results...", ed.ComputeAll)
			if iso {
				_, isoErr := withSpinner(ctx, "Checking isomorphism...", ed.RequestIsomorphism)
				computeErr = stderrors.Join(computeErr, isoErr)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			prog.done("Computed results")

			res := ed.Results()
			if asJSON {
				out := compareOutput{TNorm: ed.TNorm(), Results: res}
				for f, err := range res.Errors {
					if out.Errors == nil {
						out.Errors = map[editor.Field]string{}
					}
					out.Errors[f] = errors.UserMessage(err)
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}
			printKeyValue("T-norm", ed.TNorm().DisplayName())
			writeResultsTable(cmd.OutOrStdout(), res)
			if computeErr != nil {
				printWarning("Some requests failed; their results are shown as X")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the results as JSON")
	cmd.Flags().BoolVar(&iso, "isomorphism", false, "also check isomorphism")
	return cmd
}

func runSpinner(ctx context.Context, msg string, fn func(context.Context) error) error {
	_, err := withSpinner(ctx, msg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

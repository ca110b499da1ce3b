package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/graphsim/fuzzygraph/pkg/fuzzy"
)

func (c *CLI) tnormCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tnorm X Y",
		Short: "Evaluate every t-norm on two membership degrees",
		Long: `Evaluate T(X, Y) under each supported t-norm. Degrees outside [0,1] are
clamped. The value is the upper bound for an edge between nodes with
memberships X and Y.`,
		Example: `  graphsim tnorm 0.8 0.6`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := fuzzy.ParseMembership(args[0])
			if err != nil {
				return err
			}
			y, err := fuzzy.ParseMembership(args[1])
			if err != nil {
				return err
			}

			var selected fuzzy.TNorm
			if c.flags.tnorm != "" {
				if selected, err = fuzzy.ParseTNorm(c.flags.tnorm); err != nil {
					return err
				}
			}

			rows := make([][]string, 0, len(fuzzy.All))
			for _, t := range fuzzy.All {
				v, err := fuzzy.Eval(t, x, y)
				if err != nil {
					return err
				}
				rows = append(rows, []string{string(t), t.DisplayName(), strconv.FormatFloat(fuzzy.Round4(v), 'f', -1, 64)})
			}

			tbl := newTable("ID", "T-norm", fmt.Sprintf("T(%s, %s)", fmtDegree(x), fmtDegree(y))).
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					style := lipgloss.NewStyle().Padding(0, 1)
					switch {
					case row == -1:
						return styleTableHeader.Padding(0, 1)
					case fuzzy.All[row] == selected:
						return style.Foreground(colorCyan).Bold(true)
					case col == 2:
						return style.Foreground(colorWhite)
					}
					return style.Foreground(colorGray)
				})
			fmt.Fprintln(cmd.OutOrStdout(), tbl.Render())
			return nil
		},
	}
}

func fmtDegree(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/graphsim/fuzzygraph/pkg/graph"
)

func (c *CLI) editCommand() *cobra.Command {
	var (
		files [2]string
		saves [2]string
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit two fuzzy graphs interactively",
		Long: `Open the terminal editor with two graph slots, G1 and G2.

Graphs can be preloaded with --left and --right and written back on exit
with --save-left and --save-right.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
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
			for i, s := range graph.Slots {
				if files[i] == "" {
					continue
				}
				d, err := graph.ReadGraphFile(files[i])
				if err != nil {
					return err
				}
				if err := ed.Load(s, d); err != nil {
					return fmt.Errorf("load %s: %w", files[i], err)
				}
			}

			p := tea.NewProgram(NewEditModel(ctx, ed), tea.WithContext(ctx), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}

			for i, s := range graph.Slots {
				if saves[i] == "" {
					continue
				}
				d, err := ed.Serialize(s, true)
				if err != nil {
					return err
				}
				if err := graph.WriteGraphFile(d, saves[i]); err != nil {
					return err
				}
				printSuccess("Saved %s to %s", slotTitles[s], saves[i])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&files[0], "left", "", "load G1 from a graph file")
	cmd.Flags().StringVar(&files[1], "right", "", "load G2 from a graph file")
	cmd.Flags().StringVar(&saves[0], "save-left", "", "write G1 to a file on exit")
	cmd.Flags().StringVar(&saves[1], "save-right", "", "write G2 to a file on exit")
	return cmd
}

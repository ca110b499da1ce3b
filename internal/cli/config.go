package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if c.cfgPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# loaded from %s\n", c.cfgPath)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "# built-in defaults")
			}
			return cfg.Encode(cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.config(); err != nil {
				return err
			}
			if c.cfgPath == "" {
				printInfo("No config file found, using defaults")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.cfgPath)
			return nil
		},
	})
	return cmd
}

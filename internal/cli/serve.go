package cli

import (
	"github.com/spf13/cobra"

	"github.com/graphsim/fuzzygraph/internal/server"
	"github.com/graphsim/fuzzygraph/pkg/editor"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editor over a JSON HTTP API",
		Long: `Start an HTTP server that hosts editor sessions. Every session owns two
graph slots and shares the analysis client and cache of the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			client, store, err := c.newClient(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			srv := server.New(func() *editor.Editor { return c.newEditor(cfg, client) }, logger, cfg.Server.SessionTTL.Std())
			printInfo("Serving on %s", StyleHighlight.Render(addr))
			printDetail("backend: %s", client.BaseURL())

			if err := srv.ListenAndServe(ctx, addr); err != nil {
				return err
			}
			printSuccess("Server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

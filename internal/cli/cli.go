// Package cli implements the graphsim command-line interface.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/graphsim/fuzzygraph/pkg/buildinfo"
	"github.com/graphsim/fuzzygraph/pkg/config"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "graphsim"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	flags   globalFlags
	cfg     *config.Config
	cfgPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Graphsim edits fuzzy graphs and compares them",
		Long: `Graphsim is an editor for pairs of fuzzy graphs. It computes twin-width,
similarity and isomorphism through a remote analysis service.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			installLogHooks(c.Logger)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	c.flags.register(root)

	root.AddCommand(c.editCommand())
	root.AddCommand(c.twinWidthCommand())
	root.AddCommand(c.isomorphismCommand())
	root.AddCommand(c.similarityCommand())
	root.AddCommand(c.compareCommand())
	root.AddCommand(c.tnormCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

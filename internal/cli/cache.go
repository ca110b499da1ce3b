package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/graphsim/fuzzygraph/pkg/cache"
	"github.com/graphsim/fuzzygraph/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the analysis response cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached analysis responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if cfg.Cache.Backend == config.CacheNone {
				printInfo("Caching is disabled")
				return nil
			}

			store, err := newCache(cmd.Context(), cfg.Cache, false)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer store.Close()

			if err := store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess("Cache cleared")
			printDetail("%s", cacheLocation(cfg.Cache, store))
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where cached responses are stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			switch cfg.Cache.Backend {
			case config.CacheNone:
				fmt.Fprintln(cmd.OutOrStdout(), "none")
			case config.CacheRedis:
				fmt.Fprintln(cmd.OutOrStdout(), "redis://"+cfg.Cache.Redis.Addr)
			default:
				dir, err := cfg.Cache.CacheDir()
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), dir)
			}
			return nil
		},
	}
}

func cacheLocation(cfg config.CacheConfig, store cache.Cache) string {
	if fc, ok := store.(*cache.FileCache); ok {
		return "directory: " + fc.Dir()
	}
	return "redis: " + cfg.Redis.Addr
}

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/graphsim/fuzzygraph/pkg/analysis"
	"github.com/graphsim/fuzzygraph/pkg/cache"
	"github.com/graphsim/fuzzygraph/pkg/config"
	"github.com/graphsim/fuzzygraph/pkg/editor"
	"github.com/graphsim/fuzzygraph/pkg/errors"
	"github.com/graphsim/fuzzygraph/pkg/fuzzy"
	"github.com/graphsim/fuzzygraph/pkg/httputil"
)

// globalFlags are the persistent flags shared by every command.
// --verbose is registered by main.
type globalFlags struct {
	configPath string
	backend    string
	tnorm      string
	noCache    bool
	refresh    bool
}

func (f *globalFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "config file (default: search "+config.ConfigFileName+" and the user config dir)")
	pf.StringVar(&f.backend, "backend", "", "analysis service URL (overrides config)")
	pf.StringVar(&f.tnorm, "tnorm", "", "t-norm: min, luk, prod or drast (overrides config)")
	pf.BoolVar(&f.noCache, "no-cache", false, "disable the response cache")
	pf.BoolVar(&f.refresh, "refresh", false, "ignore cached responses but store fresh ones")

	_ = cmd.RegisterFlagCompletionFunc("tnorm", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		out := make([]string, len(fuzzy.All))
		for i, t := range fuzzy.All {
			out[i] = string(t) + "\t" + t.DisplayName()
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})
}

// config loads the configuration once and applies flag overrides.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, path, err := config.Load(c.flags.configPath)
	if err != nil {
		return nil, err
	}
	if c.flags.backend != "" {
		if err := errors.ValidateURL(c.flags.backend); err != nil {
			return nil, err
		}
		cfg.Backend.URL = c.flags.backend
	}
	if c.flags.tnorm != "" {
		t, err := fuzzy.ParseTNorm(c.flags.tnorm)
		if err != nil {
			return nil, err
		}
		cfg.Editor.TNorm = string(t)
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	c.cfg, c.cfgPath = cfg, path
	return cfg, nil
}

// =============================================================================
// Factories
// =============================================================================

// newCache opens the configured response cache. disabled yields a cache
// that stores nothing.
func newCache(ctx context.Context, cfg config.CacheConfig, disabled bool) (cache.Cache, error) {
	if disabled {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	default:
		dir, err := cfg.CacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// newClient builds an analysis client from the resolved config. The caller
// closes the returned cache.
func (c *CLI) newClient(ctx context.Context) (*analysis.Client, cache.Cache, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, nil, err
	}
	store, err := newCache(ctx, cfg.Cache, c.flags.noCache)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without it", "err", err)
		store = cache.NewNullCache()
	}
	client, err := analysis.NewClient(analysis.Options{
		BaseURL:  cfg.Backend.URL,
		Timeout:  cfg.Backend.Timeout.Std(),
		Retry:    httputil.Policy{Attempts: cfg.Backend.Retries, Delay: cfg.Backend.RetryDelay.Std()},
		Cache:    store,
		CacheTTL: cfg.Cache.TTL.Std(),
		Refresh:  c.flags.refresh,
		Logger:   c.Logger,
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	c.Logger.Debug("analysis client ready", "backend", client.BaseURL(), "cache", cfg.Cache.Backend)
	return client, store, nil
}

// newEditor creates an editor configured from cfg.
func (c *CLI) newEditor(cfg *config.Config, a editor.Analyzer) *editor.Editor {
	return editor.New(a,
		editor.WithTNorm(cfg.TNorm()),
		editor.WithParallel(cfg.Editor.Parallel),
		editor.WithLogger(c.Logger),
	)
}

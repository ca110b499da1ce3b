// Package config loads graphsim settings.
//
// Config file locations (priority order):
//  1. the --config flag
//  2. $GRAPHSIM_CONFIG
//  3. ./graphsim.toml
//  4. $XDG_CONFIG_HOME/graphsim/config.toml
//  5. ~/.config/graphsim/config.toml
//
// Files ending in .yaml or .yml are read as YAML, everything else as TOML.
// A missing file means defaults. $GRAPHSIM_BACKEND_URL overrides the
// backend URL from any source.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/graphsim/fuzzygraph/pkg/errors"
	"github.com/graphsim/fuzzygraph/pkg/fuzzy"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the full settings tree.
type Config struct {
	Backend BackendConfig `toml:"backend" yaml:"backend"`
	Editor  EditorConfig  `toml:"editor" yaml:"editor"`
	Cache   CacheConfig   `toml:"cache" yaml:"cache"`
	Server  ServerConfig  `toml:"server" yaml:"server"`
}

// BackendConfig describes the analysis service.
type BackendConfig struct {
	URL        string   `toml:"url" yaml:"url"`
	Timeout    Duration `toml:"timeout" yaml:"timeout"`
	Retries    int      `toml:"retries" yaml:"retries"`
	RetryDelay Duration `toml:"retry_delay" yaml:"retry_delay"`
}

// EditorConfig holds editor defaults.
type EditorConfig struct {
	TNorm string `toml:"tnorm" yaml:"tnorm"`
	// Parallel issues the twin-width and similarity requests concurrently.
	Parallel bool `toml:"parallel" yaml:"parallel"`
}

// CacheConfig selects the response cache.
type CacheConfig struct {
	Backend string      `toml:"backend" yaml:"backend"`
	TTL     Duration    `toml:"ttl" yaml:"ttl"`
	Dir     string      `toml:"dir" yaml:"dir"`
	Redis   RedisConfig `toml:"redis" yaml:"redis"`
}

// RedisConfig addresses the Redis cache backend.
type RedisConfig struct {
	Addr     string `toml:"addr" yaml:"addr"`
	Password string `toml:"password" yaml:"password"`
	DB       int    `toml:"db" yaml:"db"`
}

// ServerConfig configures graphsim serve.
type ServerConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
	// SessionTTL drops editor sessions idle for longer; 0 keeps them.
	SessionTTL Duration `toml:"session_ttl" yaml:"session_ttl"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:        "https://graph-sim.onrender.com",
			Timeout:    Duration(30 * time.Second),
			Retries:    3,
			RetryDelay: Duration(time.Second),
		},
		Editor: EditorConfig{TNorm: string(fuzzy.Minimum)},
		Cache: CacheConfig{
			Backend: CacheFile,
			TTL:     Duration(24 * time.Hour),
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Server: ServerConfig{Addr: ":8080", SessionTTL: Duration(time.Hour)},
	}
}

// Load reads the file at path, or the first file found by
// [FindConfigPath] when path is empty. It returns the config and the path
// actually used ("" for defaults).
func Load(path string) (*Config, string, error) {
	if path == "" {
		path = FindConfigPath()
	}
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFromPath(path); err != nil {
			return nil, path, err
		}
	}
	if u := os.Getenv(EnvBackendURL); u != "" {
		cfg.Backend.URL = u
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// LoadFromPath decodes one file over the defaults, so omitted keys keep
// their default values.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config")
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	default:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undec[0].String())
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Backend.URL == "" {
		c.Backend.URL = def.Backend.URL
	}
	if c.Editor.TNorm == "" {
		c.Editor.TNorm = def.Editor.TNorm
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = def.Cache.Backend
	}
	if c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = def.Cache.Redis.Addr
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
}

// Validate reports the first invalid setting as INVALID_CONFIG.
func (c *Config) Validate() error {
	if err := errors.ValidateURL(c.Backend.URL); err != nil {
		return err
	}
	if _, err := fuzzy.ParseTNorm(c.Editor.TNorm); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "editor.tnorm")
	}
	if c.Backend.Retries < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "backend.retries must not be negative")
	}
	if c.Backend.Timeout < 0 || c.Backend.RetryDelay < 0 || c.Cache.TTL < 0 || c.Server.SessionTTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "durations must not be negative")
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	return nil
}

// TNorm returns the configured default t-norm. Call after Validate.
func (c *Config) TNorm() fuzzy.TNorm {
	t, _ := fuzzy.ParseTNorm(c.Editor.TNorm)
	return t
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Package config loads Foldview configuration from TOML files.
//
// Configuration is optional: every field has a default, and a missing config
// file is not an error. The CLI looks for foldview.toml in the working
// directory, then in ~/.config/foldview/.
//
// Example:
//
//	[collapse]
//	budget = 30000
//	node_area = 6000
//	collapsed_footprint = 2500
//	padding = 1200
//
//	[validation]
//	footprint_warn_limit = 40000
//
//	[server]
//	addr = ":8080"
//
//	[cache]
//	backend = "file"       # none | file | redis
//	dir = ""               # file backend; defaults to ~/.cache/foldview
//	redis_addr = "localhost:6379"
//
//	[store]
//	mongo_uri = ""         # enables the Mongo document store when set
//	database = "foldview"
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/foldview/foldview/pkg/errors"
	"github.com/foldview/foldview/pkg/graph"
)

// Config is the root configuration.
type Config struct {
	Collapse   CollapseConfig   `toml:"collapse"`
	Validation ValidationConfig `toml:"validation"`
	Server     ServerConfig     `toml:"server"`
	Cache      CacheConfig      `toml:"cache"`
	Store      StoreConfig      `toml:"store"`
}

// CollapseConfig tunes the smart-collapse heuristic.
type CollapseConfig struct {
	Budget             float64 `toml:"budget"`
	NodeArea           float64 `toml:"node_area"`
	CollapsedFootprint float64 `toml:"collapsed_footprint"`
	Padding            float64 `toml:"padding"`
}

// ValidationConfig tunes the structural validator.
type ValidationConfig struct {
	// FootprintWarnLimit is the collapsed-footprint warning threshold.
	// Zero disables the warning.
	FootprintWarnLimit float64 `toml:"footprint_warn_limit"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"` // none | file | redis
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
}

// StoreConfig configures the document store.
type StoreConfig struct {
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
}

// DefaultBudget is the smart-collapse area budget used when none is
// configured.
const DefaultBudget = 30000.0

// Cache backend names accepted in [cache] backend.
const (
	CacheBackendNone  = "none"
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	m := graph.DefaultCostModel()
	return &Config{
		Collapse: CollapseConfig{
			Budget:             DefaultBudget,
			NodeArea:           m.NodeArea,
			CollapsedFootprint: m.CollapsedFootprint,
			Padding:            m.Padding,
		},
		Validation: ValidationConfig{
			FootprintWarnLimit: graph.DefaultFootprintWarnLimit,
		},
		Server: ServerConfig{Addr: ":8080"},
		Cache:  CacheConfig{Backend: "file", RedisAddr: "localhost:6379"},
		Store:  StoreConfig{Database: "foldview"},
	}
}

// CacheDir returns the configured cache directory, defaulting to the XDG
// cache home (~/.cache/foldview).
func (c *Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "foldview")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "foldview-cache")
	}
	return filepath.Join(home, ".cache", "foldview")
}

// CostModel converts the collapse section into the engine's cost model.
func (c *Config) CostModel() graph.CostModel {
	return graph.CostModel{
		NodeArea:           c.Collapse.NodeArea,
		CollapsedFootprint: c.Collapse.CollapsedFootprint,
		Padding:            c.Collapse.Padding,
	}
}

// Load reads a TOML config file, layering it over the defaults.
// A missing file returns the defaults without error; a malformed file or an
// unknown cache backend is an INVALID_CONFIG error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Discover loads configuration from the first foldview.toml found in the
// working directory or the user config directory. Returns defaults when
// neither exists.
func Discover() (*Config, error) {
	if cfg, err := Load("foldview.toml"); err != nil {
		return nil, err
	} else if _, statErr := os.Stat("foldview.toml"); statErr == nil {
		return cfg, nil
	}

	home, err := os.UserConfigDir()
	if err != nil {
		return Default(), nil
	}
	return Load(filepath.Join(home, "foldview", "foldview.toml"))
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "", CacheBackendNone, CacheBackendFile, CacheBackendRedis:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Collapse.Budget < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "collapse budget must not be negative")
	}
	return nil
}

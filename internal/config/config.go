// Package config loads and validates the .petrel.toml workspace
// configuration.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"

	"github.com/petrel-ls/petrel/internal/errors"
)

// DefaultConfigName is the config file looked up in the workspace root.
const DefaultConfigName = ".petrel.toml"

type Config struct {
	Project Project `toml:"project"`
	Index   Index   `toml:"index"`
	Search  Search  `toml:"search"`
}

type Project struct {
	Root string `toml:"root"`
	Name string `toml:"name"`
}

type Index struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
	// ShardCount is the shard count per concurrent map, rounded up to a
	// power of two.
	ShardCount int `toml:"shard_count"`
	// Workers bounds the parallel parse workers; 0 = NumCPU.
	Workers int `toml:"workers"`
	// MaxFileSize skips source files larger than this many bytes.
	MaxFileSize int64 `toml:"max_file_size"`
	// WatchDebounceMs batches file events before reindexing.
	WatchDebounceMs int `toml:"watch_debounce_ms"`
}

type Search struct {
	MaxResults int `toml:"max_results"`
	// FuzzyThreshold is the minimum Jaro-Winkler similarity for a match
	// to keep its similarity score; matches below it rank last.
	FuzzyThreshold float64 `toml:"fuzzy_threshold"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Index: Index{
			Include: []string{"**/*.py", "**/*.xml", "**/*.js"},
			Exclude: []string{
				"**/node_modules/**",
				"**/.git/**",
				"**/__pycache__/**",
			},
			ShardCount:      8,
			Workers:         0,
			MaxFileSize:     4 * 1024 * 1024,
			WatchDebounceMs: 300,
		},
		Search: Search{
			MaxResults:     100,
			FuzzyThreshold: 0.7,
		},
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist. Values absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.NewConfigError("path", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError("path", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults restores defaults for zeroed numeric fields so a sparse
// config file doesn't disable limits outright.
func (c *Config) applyDefaults() {
	def := Default()
	if len(c.Index.Include) == 0 {
		c.Index.Include = def.Index.Include
	}
	if c.Index.ShardCount <= 0 {
		c.Index.ShardCount = def.Index.ShardCount
	}
	if c.Index.MaxFileSize <= 0 {
		c.Index.MaxFileSize = def.Index.MaxFileSize
	}
	if c.Index.WatchDebounceMs <= 0 {
		c.Index.WatchDebounceMs = def.Index.WatchDebounceMs
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = def.Search.MaxResults
	}
	if c.Search.FuzzyThreshold <= 0 {
		c.Search.FuzzyThreshold = def.Search.FuzzyThreshold
	}
}

// Validate checks config values are usable.
func (c *Config) Validate() error {
	for _, pattern := range append(append([]string{}, c.Index.Include...), c.Index.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return errors.NewConfigError("pattern", pattern, fmt.Errorf("invalid glob pattern"))
		}
	}
	if c.Index.Workers < 0 {
		return errors.NewConfigError("index.workers", fmt.Sprint(c.Index.Workers), fmt.Errorf("must be >= 0"))
	}
	if c.Search.FuzzyThreshold < 0 || c.Search.FuzzyThreshold > 1 {
		return errors.NewConfigError("search.fuzzy_threshold", fmt.Sprint(c.Search.FuzzyThreshold), fmt.Errorf("must be between 0 and 1"))
	}
	return nil
}

// EffectiveWorkers resolves the worker count, defaulting to NumCPU.
func (c *Config) EffectiveWorkers() int {
	if c.Index.Workers > 0 {
		return c.Index.Workers
	}
	return runtime.NumCPU()
}

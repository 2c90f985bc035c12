// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"fmt"
	"runtime"

	"github.com/okian/antiref/internal/domain/types"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Thresholds is the ordered, strictly decreasing identity percentage
	// sequence, one clustering pass per entry. There is no default: the
	// caller must supply it.
	Thresholds []int `koanf:"thresholds"`

	// BaselineLevel designates the level whose cluster count anchors the
	// efficiency ratios. Zero means "the finest configured threshold".
	BaselineLevel int `koanf:"baseline_level"`

	// InputDB is the raw sequence database handed to the first pass.
	InputDB string `koanf:"input_db"`

	// WorkDir holds per-run scratch space and intermediate databases.
	WorkDir string `koanf:"work_dir"`

	// OutputDir receives the manifest and efficiency artifacts.
	OutputDir string `koanf:"output_dir"`

	// MMseqsBin is the clustering tool binary name or path.
	MMseqsBin string `koanf:"mmseqs_bin"`

	// ManifestWorkers bounds parallel lineage resolution.
	ManifestWorkers int `koanf:"manifest_workers"`

	// MetricsAddr, when set, exposes /metrics on that address for the
	// duration of the run (e.g. ":9090"). Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`
}

// New creates a Config with defaults. The threshold sequence is deliberately
// left empty; validation rejects a run without an explicit one.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		WorkDir:         "work",
		OutputDir:       ".",
		MMseqsBin:       "mmseqs",
		ManifestWorkers: runtime.NumCPU(),
	}
}

// Levels returns the configured thresholds as domain levels.
func (c *Config) Levels() []types.Level {
	return types.LevelsFromInts(c.Thresholds)
}

// Baseline returns the designated baseline level, defaulting to the finest
// configured threshold.
func (c *Config) Baseline() types.Level {
	if c.BaselineLevel == 0 && len(c.Thresholds) > 0 {
		return types.Level(c.Thresholds[0])
	}
	return types.Level(c.BaselineLevel)
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	levels := c.Levels()
	if err := types.ValidateLevels(levels); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if !types.ContainsLevel(levels, c.Baseline()) {
		return fmt.Errorf("%w: baseline level %d not in threshold sequence", ErrInvalidConfig, c.Baseline())
	}
	if c.InputDB == "" {
		return fmt.Errorf("%w: input_db must not be empty", ErrInvalidConfig)
	}
	if c.ManifestWorkers < 1 {
		return fmt.Errorf("%w: manifest_workers must be positive", ErrInvalidConfig)
	}
	return nil
}

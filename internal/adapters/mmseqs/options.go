package mmseqs

import (
	"github.com/okian/antiref/pkg/logger"
)

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithBinary sets the clustering tool binary name or path.
func WithBinary(binary string) Option {
	return func(r *Runner) {
		if binary != "" {
			r.binary = binary
		}
	}
}

// WithCoverage sets the coverage fraction handed to every cluster call.
func WithCoverage(coverage float64) Option {
	return func(r *Runner) {
		if coverage > 0 && coverage <= 1 {
			r.coverage = coverage
		}
	}
}

// WithCoverageMode sets the coverage mode handed to every cluster call.
func WithCoverageMode(mode int) Option {
	return func(r *Runner) {
		if mode >= 0 {
			r.coverageMode = mode
		}
	}
}

// WithCommander sets a custom command executor.
func WithCommander(commander Commander) Option {
	return func(r *Runner) {
		if commander != nil {
			r.commander = commander
		}
	}
}

// WithLogger sets a custom logger for the runner.
func WithLogger(logger logger.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

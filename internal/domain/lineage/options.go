package lineage

import (
	"github.com/okian/antiref/pkg/logger"
)

// Option applies a configuration option to the ManifestBuilder.
type Option func(*ManifestBuilder)

// WithWorkers bounds the number of goroutines resolving lineage rows.
func WithWorkers(n int) Option {
	return func(b *ManifestBuilder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithLogger sets a custom logger for the builder.
func WithLogger(logger logger.Logger) Option {
	return func(b *ManifestBuilder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

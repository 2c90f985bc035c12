package lineage

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/antiref/internal/domain/types"
	"github.com/okian/antiref/pkg/logger"
	"github.com/okian/antiref/pkg/metrics"
)

// ManifestBuilder threads every base identifier through an ordered set of
// assignment indexes (finest -> coarsest) and emits one lineage row per
// identifier. The indexes are read-only after load, so rows resolve in
// parallel without locking.
type ManifestBuilder struct {
	indexes []*AssignmentIndex
	workers int
	logger  logger.Logger
}

// NewManifestBuilder creates a builder over the given indexes, which must be
// ordered from finest to coarsest threshold.
func NewManifestBuilder(indexes []*AssignmentIndex, opts ...Option) (*ManifestBuilder, error) {
	levels := make([]types.Level, len(indexes))
	for i, ix := range indexes {
		levels[i] = ix.Level()
	}
	if err := types.ValidateLevels(levels); err != nil {
		return nil, err
	}

	b := &ManifestBuilder{
		indexes: indexes,
		workers: runtime.NumCPU(),
		logger:  logger.Get().Named("manifest"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// Header returns the manifest CSV header: one column per level, descending.
func (b *ManifestBuilder) Header() []string {
	header := make([]string, len(b.indexes))
	for i, ix := range b.indexes {
		header[i] = ix.Level().ArtifactName()
	}
	return header
}

// resolveRow threads one base identifier through every level. The seed's
// first hop is its own finest-level representative; each later hop looks up
// the previous result. A missing key means a finer-level identifier was
// never processed by the coarser pass, which is fatal: no partial rows.
func (b *ManifestBuilder) resolveRow(seed string) ([]string, error) {
	row := make([]string, len(b.indexes))
	current := seed
	for i, ix := range b.indexes {
		rep, ok := ix.Resolve(current)
		if !ok {
			metrics.RecordChainError()
			return nil, fmt.Errorf("%w: identifier %q has no assignment at level %s (seed %q)",
				ErrChainResolution, current, ix.Level(), seed)
		}
		row[i] = rep
		current = rep
	}
	return row, nil
}

// Rows resolves every base identifier, in the finest index's table order.
// Resolution fans out across the configured worker bound; each worker owns a
// disjoint stripe of the pre-sized result slice.
func (b *ManifestBuilder) Rows(ctx context.Context) ([][]string, error) {
	start := time.Now()
	seeds := b.indexes[0].Members()
	rows := make([][]string, len(seeds))

	g, ctx := errgroup.WithContext(ctx)
	workers := b.workers
	if workers > len(seeds) {
		workers = len(seeds)
	}
	chunk := 0
	if workers > 0 {
		chunk = (len(seeds) + workers - 1) / workers
	}
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(seeds) {
			hi = len(seeds)
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				row, err := b.resolveRow(seeds[i])
				if err != nil {
					return err
				}
				rows[i] = row
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics.RecordManifestRows(len(rows))
	metrics.RecordManifestBuildDuration(time.Since(start).Seconds())
	b.logger.Info(ctx, "lineage rows resolved",
		logger.Int("rows", len(rows)),
		logger.Int("levels", len(b.indexes)),
	)
	return rows, nil
}

// WriteCSV resolves all rows and writes the manifest to w. It returns the
// number of data rows written.
func (b *ManifestBuilder) WriteCSV(ctx context.Context, w io.Writer) (int, error) {
	rows, err := b.Rows(ctx)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(b.Header()); err != nil {
		return 0, fmt.Errorf("write manifest header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return 0, fmt.Errorf("write manifest row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush manifest: %w", err)
	}
	return len(rows), nil
}

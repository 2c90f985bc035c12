// Package efficiency summarizes per-level cluster counts as compression
// ratios relative to a baseline (finest) level.
package efficiency

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/okian/antiref/internal/domain/types"
	"github.com/okian/antiref/pkg/metrics"
)

// Record is one level's compression summary.
type Record struct {
	Level      types.Level
	Clusters   int
	Efficiency float64
}

// Calculator computes compression ratios against a designated baseline.
type Calculator struct {
	baseline types.Level
}

// NewCalculator creates a calculator anchored at the baseline level.
func NewCalculator(baseline types.Level) *Calculator {
	return &Calculator{baseline: baseline}
}

// Compute produces one record per level, in the given level order, with
// ratio = count(level) / count(baseline). The baseline count must be present
// and non-zero before any ratio is computed.
func (c *Calculator) Compute(levels []types.Level, counts map[types.Level]int) ([]Record, error) {
	base, ok := counts[c.baseline]
	if !ok {
		return nil, fmt.Errorf("%w: level %s has no count", ErrBaselineCount, c.baseline)
	}
	if base <= 0 {
		return nil, fmt.Errorf("%w: level %s count is %d", ErrBaselineCount, c.baseline, base)
	}

	records := make([]Record, 0, len(levels))
	for _, level := range levels {
		n, ok := counts[level]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingCount, level)
		}
		ratio := float64(n) / float64(base)
		metrics.UpdateEfficiency(int(level), ratio)
		records = append(records, Record{
			Level:      level,
			Clusters:   n,
			Efficiency: ratio,
		})
	}
	return records, nil
}

// WriteCSV writes records in order with the report header.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"clustering_identity", "clusters", "efficiency"}); err != nil {
		return fmt.Errorf("write efficiency header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Level.String(),
			strconv.Itoa(r.Clusters),
			strconv.FormatFloat(r.Efficiency, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write efficiency row for level %s: %w", r.Level, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush efficiency report: %w", err)
	}
	return nil
}

// Package synth fabricates internally consistent multi-level assignment
// tables for exercising the pipeline without the external clustering tool.
package synth

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/okian/antiref/internal/domain/types"
)

// Default generation constants.
const (
	defaultCount    = 1000
	defaultCollapse = 0.3
	filePermission  = 0o600
)

// Generator produces synthetic datasets. Each level's member set is the
// previous level's representative set, so the monotonic-collapse invariant
// holds by construction.
type Generator struct {
	rng      *rand.Rand
	count    int
	levels   []types.Level
	collapse float64
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithSeed fixes the random source for reproducible datasets.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // synthetic test data, not crypto
	}
}

// WithCount sets the number of base identifiers.
func WithCount(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.count = n
		}
	}
}

// WithLevels sets the threshold sequence to generate for.
func WithLevels(levels []types.Level) Option {
	return func(g *Generator) {
		g.levels = levels
	}
}

// WithCollapseProbability sets the chance a member joins an existing
// cluster instead of founding its own.
func WithCollapseProbability(p float64) Option {
	return func(g *Generator) {
		if p >= 0 && p < 1 {
			g.collapse = p
		}
	}
}

// NewGenerator creates a generator with defaults: 1000 identifiers over the
// caller-supplied levels.
func NewGenerator(opts ...Option) (*Generator, error) {
	g := &Generator{
		rng:      rand.New(rand.NewSource(1)), //nolint:gosec // synthetic test data, not crypto
		count:    defaultCount,
		collapse: defaultCollapse,
	}

	// Apply all options
	for _, opt := range opts {
		opt(g)
	}

	if err := types.ValidateLevels(g.levels); err != nil {
		return nil, err
	}
	return g, nil
}

// Dataset is one generated multi-level assignment set.
type Dataset struct {
	Levels      []types.Level
	BaseIDs     []string
	Members     map[types.Level][]string          // per level, in parent order
	Assignments map[types.Level]map[string]string // member -> representative
}

// Generate builds a dataset. The first level clusters the base identifiers;
// every later level clusters the previous level's representatives.
func (g *Generator) Generate() *Dataset {
	ids := make([]string, g.count)
	for i := range ids {
		ids[i] = fmt.Sprintf("seq_%06d", i+1)
	}

	d := &Dataset{
		Levels:      g.levels,
		BaseIDs:     ids,
		Members:     make(map[types.Level][]string, len(g.levels)),
		Assignments: make(map[types.Level]map[string]string, len(g.levels)),
	}

	parent := ids
	for _, level := range g.levels {
		assign := make(map[string]string, len(parent))
		var reps []string
		for _, member := range parent {
			if len(reps) == 0 || g.rng.Float64() >= g.collapse {
				assign[member] = member
				reps = append(reps, member)
			} else {
				assign[member] = reps[g.rng.Intn(len(reps))]
			}
		}
		d.Members[level] = parent
		d.Assignments[level] = assign
		parent = reps
	}
	return d
}

// WriteTables writes one assignment table per level into dir and returns
// the paths keyed by level.
func (d *Dataset) WriteTables(dir string) (map[types.Level]string, error) {
	paths := make(map[types.Level]string, len(d.Levels))
	for _, level := range d.Levels {
		path := filepath.Join(dir, level.ArtifactName()+"_cluster.tsv")
		var buf []byte
		for _, member := range d.Members[level] {
			buf = append(buf, d.Assignments[level][member]...)
			buf = append(buf, ' ')
			buf = append(buf, member...)
			buf = append(buf, '\n')
		}
		if err := os.WriteFile(path, buf, filePermission); err != nil {
			return nil, fmt.Errorf("write assignment table for level %s: %w", level, err)
		}
		paths[level] = path
	}
	return paths, nil
}

// ClusterCounts returns the distinct representative count per level.
func (d *Dataset) ClusterCounts() map[types.Level]int {
	counts := make(map[types.Level]int, len(d.Levels))
	for _, level := range d.Levels {
		reps := make(map[string]bool)
		for _, rep := range d.Assignments[level] {
			reps[rep] = true
		}
		counts[level] = len(reps)
	}
	return counts
}

// ExpectedManifest threads every base identifier through the generated
// assignments, independently of the production resolver, for verification.
func (d *Dataset) ExpectedManifest() [][]string {
	rows := make([][]string, len(d.BaseIDs))
	for i, id := range d.BaseIDs {
		row := make([]string, len(d.Levels))
		current := id
		for j, level := range d.Levels {
			current = d.Assignments[level][current]
			row[j] = current
		}
		rows[i] = row
	}
	return rows
}

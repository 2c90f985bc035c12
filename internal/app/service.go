// Package app sequences the clustering passes and the downstream
// manifest and efficiency stages for one pipeline run.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/okian/antiref/internal/adapters/mmseqs"
	"github.com/okian/antiref/internal/domain/efficiency"
	"github.com/okian/antiref/internal/domain/lineage"
	"github.com/okian/antiref/internal/domain/types"
	"github.com/okian/antiref/pkg/logger"
)

// Output artifact names inside the output directory.
const (
	manifestFileName   = "antiref_manifest.csv"
	efficiencyFileName = "clustering_efficiency.csv"
)

// StepRunner abstracts one clustering pass.
type StepRunner interface {
	Cluster(ctx context.Context, level types.Level, parentDB string) (*mmseqs.Artifacts, error)
}

// RunnerFactory builds the step runner for a run's working directory.
type RunnerFactory func(dir string) StepRunner

// Result accumulates everything one run produced. The pipeline owns it;
// step runners only produce artifacts, they never append here.
type Result struct {
	RunID          string
	Steps          []*mmseqs.Artifacts // one per level, in threshold order
	ManifestPath   string
	ManifestRows   int
	EfficiencyPath string
	Records        []efficiency.Record
}

// Pipeline chains clustering passes at strictly decreasing identity
// thresholds, each consuming the representative set of the previous pass,
// then derives the membership manifest and the efficiency report.
type Pipeline struct {
	levels          []types.Level
	baseline        types.Level
	inputDB         string
	workDir         string
	outputDir       string
	binary          string
	manifestWorkers int
	runnerFactory   RunnerFactory
	logger          logger.Logger
}

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithLevels sets the ordered threshold sequence.
func WithLevels(levels []types.Level) Option {
	return func(p *Pipeline) {
		p.levels = levels
	}
}

// WithBaseline designates the efficiency baseline level.
func WithBaseline(level types.Level) Option {
	return func(p *Pipeline) {
		if level > 0 {
			p.baseline = level
		}
	}
}

// WithInputDB sets the raw sequence database for the first pass.
func WithInputDB(path string) Option {
	return func(p *Pipeline) {
		p.inputDB = path
	}
}

// WithWorkDir sets the scratch/intermediate artifact directory.
func WithWorkDir(dir string) Option {
	return func(p *Pipeline) {
		if dir != "" {
			p.workDir = dir
		}
	}
}

// WithOutputDir sets the directory receiving the manifest and report.
func WithOutputDir(dir string) Option {
	return func(p *Pipeline) {
		if dir != "" {
			p.outputDir = dir
		}
	}
}

// WithBinary sets the clustering tool binary for the default runner.
func WithBinary(binary string) Option {
	return func(p *Pipeline) {
		if binary != "" {
			p.binary = binary
		}
	}
}

// WithManifestWorkers bounds parallel lineage resolution.
func WithManifestWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.manifestWorkers = n
		}
	}
}

// WithRunnerFactory sets a custom step runner factory.
func WithRunnerFactory(f RunnerFactory) Option {
	return func(p *Pipeline) {
		if f != nil {
			p.runnerFactory = f
		}
	}
}

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger logger.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New constructs a Pipeline with default configuration.
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		workDir:         "work",
		outputDir:       ".",
		binary:          "mmseqs",
		manifestWorkers: runtime.NumCPU(),
		logger:          logger.Get().Named("pipeline"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(p)
	}

	if err := types.ValidateLevels(p.levels); err != nil {
		return nil, err
	}
	if p.baseline == 0 {
		p.baseline = p.levels[0]
	}
	if !types.ContainsLevel(p.levels, p.baseline) {
		return nil, fmt.Errorf("%w: baseline level %s not in threshold sequence",
			types.ErrInvalidThresholds, p.baseline)
	}
	if p.inputDB == "" {
		return nil, fmt.Errorf("%w: no input database", ErrResource)
	}
	if p.runnerFactory == nil {
		binary := p.binary
		p.runnerFactory = func(dir string) StepRunner {
			return mmseqs.NewRunner(dir, mmseqs.WithBinary(binary))
		}
	}

	return p, nil
}

// Run executes the full pipeline: preflight, one clustering pass per level
// (strictly sequential, fail-fast), then the manifest and efficiency stages.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	runDir := filepath.Join(p.workDir, "run-"+runID[:8])

	if err := p.preflight(runDir); err != nil {
		return nil, err
	}

	result := &Result{RunID: runID}
	runner := p.runnerFactory(runDir)

	// The parent sequence is fixed in advance: each level consumes the
	// previous level's derived representative database.
	parents := make([]string, len(p.levels))
	parents[0] = p.inputDB
	for i := 1; i < len(p.levels); i++ {
		parents[i] = mmseqs.SequenceDBPath(runDir, p.levels[i-1])
	}

	p.logger.Info(ctx, "pipeline run started",
		logger.String("run_id", runID),
		logger.Int("levels", len(p.levels)),
		logger.String("input_db", p.inputDB),
	)
	start := time.Now()

	for i, level := range p.levels {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline aborted at level %s: %w", level, err)
		}
		artifacts, err := runner.Cluster(ctx, level, parents[i])
		if err != nil {
			// Fail fast: partial artifacts from this step are
			// untrustworthy and must not feed the next one.
			return nil, fmt.Errorf("pipeline aborted at level %s: %w", level, err)
		}
		result.Steps = append(result.Steps, artifacts)
	}

	if err := p.buildManifest(ctx, result); err != nil {
		return nil, err
	}
	if err := p.reportEfficiency(ctx, result); err != nil {
		return nil, err
	}

	p.logger.Info(ctx, "pipeline run finished",
		logger.String("run_id", runID),
		logger.Int("manifest_rows", result.ManifestRows),
		logger.Float64("seconds", time.Since(start).Seconds()),
	)
	return result, nil
}

// preflight validates resources before any step runs.
func (p *Pipeline) preflight(runDir string) error {
	info, err := os.Stat(p.inputDB)
	if err != nil {
		return fmt.Errorf("%w: input database %s", ErrResource, p.inputDB)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: input database %s is empty", ErrResource, p.inputDB)
	}
	if err := os.MkdirAll(runDir, 0o750); err != nil {
		return fmt.Errorf("%w: scratch directory %s: %v", ErrResource, runDir, err)
	}
	if err := os.MkdirAll(p.outputDir, 0o750); err != nil {
		return fmt.Errorf("%w: output directory %s: %v", ErrResource, p.outputDir, err)
	}
	return nil
}

// buildManifest loads one assignment index per level and writes the
// membership manifest.
func (p *Pipeline) buildManifest(ctx context.Context, result *Result) error {
	indexes := make([]*lineage.AssignmentIndex, len(result.Steps))
	for i, step := range result.Steps {
		ix, err := lineage.LoadAssignmentIndex(step.Assignments, step.Level)
		if err != nil {
			return err
		}
		indexes[i] = ix
	}

	builder, err := lineage.NewManifestBuilder(indexes,
		lineage.WithWorkers(p.manifestWorkers),
		lineage.WithLogger(p.logger.Named("manifest")),
	)
	if err != nil {
		return err
	}

	path := filepath.Join(p.outputDir, manifestFileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: manifest %s: %v", ErrResource, path, err)
	}
	defer f.Close()

	rows, err := builder.WriteCSV(ctx, f)
	if err != nil {
		return err
	}
	result.ManifestPath = path
	result.ManifestRows = rows
	return nil
}

// reportEfficiency summarizes per-level cluster counts against the baseline.
func (p *Pipeline) reportEfficiency(ctx context.Context, result *Result) error {
	counts := make(map[types.Level]int, len(result.Steps))
	for _, step := range result.Steps {
		counts[step.Level] = step.ClusterCount
	}

	records, err := efficiency.NewCalculator(p.baseline).Compute(p.levels, counts)
	if err != nil {
		return err
	}

	path := filepath.Join(p.outputDir, efficiencyFileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: efficiency report %s: %v", ErrResource, path, err)
	}
	defer f.Close()

	if err := efficiency.WriteCSV(f, records); err != nil {
		return err
	}
	result.EfficiencyPath = path
	result.Records = records

	p.logger.Info(ctx, "efficiency report written",
		logger.String("path", path),
		logger.Int("levels", len(records)),
	)
	return nil
}

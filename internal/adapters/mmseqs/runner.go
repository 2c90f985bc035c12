// Package mmseqs runs one clustering pass of the external MMseqs2 tool and
// validates the artifacts it leaves behind.
package mmseqs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/okian/antiref/internal/domain/types"
	"github.com/okian/antiref/pkg/logger"
	"github.com/okian/antiref/pkg/metrics"
)

// Invocation constants. Coverage behavior is fixed per runner, never
// negotiated per call; only the identity threshold varies between levels.
const (
	defaultBinary       = "mmseqs"
	defaultCoverage     = 0.8
	defaultCoverageMode = 1

	errOutputTail = 2048
)

// Commander runs one external command to completion.
type Commander interface {
	Run(ctx context.Context, name string, args ...string) error
}

// execCommander is the production Commander backed by os/exec.
type execCommander struct{}

func (execCommander) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s %v: %v: %s", ErrClusteringTool, name, args, err, tail(output.Bytes()))
	}
	return nil
}

// tail returns the last errOutputTail bytes of tool output for diagnostics.
func tail(b []byte) string {
	if len(b) > errOutputTail {
		b = b[len(b)-errOutputTail:]
	}
	return string(b)
}

// Artifacts are the outputs of one clustering pass.
type Artifacts struct {
	Level        types.Level
	ClusterDB    string // cluster result database
	SequenceDB   string // derived database restricted to representatives
	FASTA        string // FASTA export of the derived database
	Assignments  string // <representative> <member> table, one row per parent member
	SizeSummary  string // <count> <representative> table, sorted by representative
	ClusterCount int    // rows in the size summary
}

// Artifact path layout inside a working directory. The orchestrator uses
// these to fix the parent sequence ahead of any step.

// ClusterDBPath returns the cluster database path for a level.
func ClusterDBPath(dir string, level types.Level) string {
	return filepath.Join(dir, level.ArtifactName()+"_clu")
}

// SequenceDBPath returns the derived representative database path for a level.
func SequenceDBPath(dir string, level types.Level) string {
	return filepath.Join(dir, level.ArtifactName()+"_db")
}

// FastaPath returns the FASTA export path for a level.
func FastaPath(dir string, level types.Level) string {
	return filepath.Join(dir, level.ArtifactName()+".fasta")
}

// AssignmentPath returns the assignment table path for a level.
func AssignmentPath(dir string, level types.Level) string {
	return filepath.Join(dir, level.ArtifactName()+"_cluster.tsv")
}

// SizeSummaryPath returns the cluster-size summary path for a level.
func SizeSummaryPath(dir string, level types.Level) string {
	return filepath.Join(dir, level.ArtifactName()+"_cluster_sizes.tsv")
}

// Runner executes one clustering pass per call inside a working directory.
type Runner struct {
	binary       string
	dir          string
	coverage     float64
	coverageMode int
	commander    Commander
	logger       logger.Logger
}

// NewRunner creates a runner writing artifacts under dir.
func NewRunner(dir string, opts ...Option) *Runner {
	r := &Runner{
		binary:       defaultBinary,
		dir:          dir,
		coverage:     defaultCoverage,
		coverageMode: defaultCoverageMode,
		commander:    execCommander{},
		logger:       logger.Get().Named("mmseqs"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// subStep is one externally checked unit of a clustering pass. Each
// sub-command's exit status and expected artifact are verified individually
// so a mid-chain failure names the sub-step that caused it.
type subStep struct {
	name     string
	args     []string
	artifact string
}

// Cluster runs a full clustering pass for level against parentDB. On any
// failure the step's outputs are untrustworthy and no artifacts are returned.
func (r *Runner) Cluster(ctx context.Context, level types.Level, parentDB string) (*Artifacts, error) {
	start := time.Now()

	if err := requireArtifact(parentDB); err != nil {
		return nil, r.fail(level, fmt.Errorf("parent dataset for level %s: %w", level, err))
	}

	art := &Artifacts{
		Level:       level,
		ClusterDB:   ClusterDBPath(r.dir, level),
		SequenceDB:  SequenceDBPath(r.dir, level),
		FASTA:       FastaPath(r.dir, level),
		Assignments: AssignmentPath(r.dir, level),
		SizeSummary: SizeSummaryPath(r.dir, level),
	}

	scratch := filepath.Join(r.dir, "tmp_"+level.String())
	if err := os.MkdirAll(scratch, 0o750); err != nil {
		return nil, r.fail(level, fmt.Errorf("create scratch for level %s: %w", level, err))
	}

	steps := []subStep{
		{
			name: "cluster",
			args: []string{
				"cluster", parentDB, art.ClusterDB, scratch,
				"--min-seq-id", level.FractionString(),
				"-c", strconv.FormatFloat(r.coverage, 'f', -1, 64),
				"--cov-mode", strconv.Itoa(r.coverageMode),
			},
			artifact: art.ClusterDB + ".index",
		},
		{
			name:     "createsubdb",
			args:     []string{"createsubdb", art.ClusterDB, parentDB, art.SequenceDB},
			artifact: art.SequenceDB + ".index",
		},
		{
			name:     "convert2fasta",
			args:     []string{"convert2fasta", art.SequenceDB, art.FASTA},
			artifact: art.FASTA,
		},
		{
			name:     "createtsv",
			args:     []string{"createtsv", parentDB, parentDB, art.ClusterDB, art.Assignments},
			artifact: art.Assignments,
		},
	}

	r.logger.Info(ctx, "clustering step started",
		logger.String("level", level.String()),
		logger.String("parent", parentDB),
		logger.String("min_seq_id", level.FractionString()),
	)

	for _, step := range steps {
		if err := r.commander.Run(ctx, r.binary, step.args...); err != nil {
			return nil, r.fail(level, fmt.Errorf("%s at level %s: %w", step.name, level, err))
		}
		if err := requireArtifact(step.artifact); err != nil {
			return nil, r.fail(level, fmt.Errorf("%s at level %s: %w", step.name, level, err))
		}
	}

	count, err := WriteSizeSummary(art.Assignments, art.SizeSummary)
	if err != nil {
		return nil, r.fail(level, fmt.Errorf("size summary at level %s: %w", level, err))
	}
	art.ClusterCount = count

	elapsed := time.Since(start)
	metrics.RecordStepCompleted()
	metrics.RecordStepDuration(int(level), elapsed.Seconds())
	metrics.UpdateClusterCount(int(level), count)
	r.logger.Info(ctx, "clustering step finished",
		logger.String("level", level.String()),
		logger.Int("clusters", count),
		logger.Float64("seconds", elapsed.Seconds()),
	)
	return art, nil
}

// fail records step failure metrics and passes the error through.
func (r *Runner) fail(level types.Level, err error) error {
	metrics.RecordStepError(int(level))
	metrics.RecordErrorByComponent("mmseqs", "clustering_step")
	return err
}

// requireArtifact verifies path exists and is non-empty.
func requireArtifact(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMissingArtifact, path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrMissingArtifact, path)
	}
	return nil
}

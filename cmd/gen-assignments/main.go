// Command gen-assignments fabricates multi-level assignment tables, plus
// the manifest they should resolve to, for smoke-testing the pipeline
// without the external clustering tool.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/okian/antiref/internal/domain/types"
	"github.com/okian/antiref/internal/synth"
	"github.com/okian/antiref/pkg/logger"
)

const expectedManifestName = "expected_manifest.csv"

func main() {
	ids := flag.Int("ids", 1000, "number of base identifiers")
	levelsFlag := flag.String("levels", "100,99,98,96,94,92,90", "comma-separated identity thresholds, strictly decreasing")
	seed := flag.Int64("seed", 1, "random seed")
	collapse := flag.Float64("collapse", 0.3, "probability a member joins an existing cluster")
	out := flag.String("out", ".", "output directory")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get().Named("gen-assignments")
	ctx := context.Background()

	levels, err := parseLevels(*levelsFlag)
	if err != nil {
		log.Fatal(ctx, "invalid levels", logger.Error(err))
	}

	gen, err := synth.NewGenerator(
		synth.WithSeed(*seed),
		synth.WithCount(*ids),
		synth.WithLevels(levels),
		synth.WithCollapseProbability(*collapse),
	)
	if err != nil {
		log.Fatal(ctx, "invalid generator configuration", logger.Error(err))
	}

	if err := os.MkdirAll(*out, 0o750); err != nil {
		log.Fatal(ctx, "cannot create output directory", logger.Error(err))
	}

	dataset := gen.Generate()
	paths, err := dataset.WriteTables(*out)
	if err != nil {
		log.Fatal(ctx, "failed to write assignment tables", logger.Error(err))
	}
	for level, path := range paths {
		log.Info(ctx, "assignment table written",
			logger.String("level", level.String()),
			logger.String("path", path),
		)
	}

	if err := writeExpectedManifest(*out, dataset); err != nil {
		log.Fatal(ctx, "failed to write expected manifest", logger.Error(err))
	}

	counts := dataset.ClusterCounts()
	for _, level := range levels {
		log.Info(ctx, "level summary",
			logger.String("level", level.String()),
			logger.Int("clusters", counts[level]),
		)
	}
}

func parseLevels(s string) ([]types.Level, error) {
	parts := strings.Split(s, ",")
	values := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	levels := types.LevelsFromInts(values)
	if err := types.ValidateLevels(levels); err != nil {
		return nil, err
	}
	return levels, nil
}

func writeExpectedManifest(dir string, dataset *synth.Dataset) error {
	f, err := os.Create(filepath.Join(dir, expectedManifestName))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := make([]string, len(dataset.Levels))
	for i, level := range dataset.Levels {
		header[i] = level.ArtifactName()
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range dataset.ExpectedManifest() {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

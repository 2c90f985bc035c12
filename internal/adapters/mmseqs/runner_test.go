package mmseqs_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/antiref/internal/adapters/mmseqs"
	"github.com/okian/antiref/internal/domain/lineage"
	"github.com/okian/antiref/internal/domain/types"
	"github.com/okian/antiref/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeCommander mimics the external tool by materializing the artifact each
// sub-command is expected to produce.
type fakeCommander struct {
	calls      [][]string
	failOn     string // sub-command name that exits non-zero
	skipOutput string // sub-command name that exits zero without output
	table      string // assignment table contents for createtsv
}

func (f *fakeCommander) Run(_ context.Context, name string, args ...string) error {
	call := append([]string{name}, args...)
	f.calls = append(f.calls, call)
	sub := args[0]

	if sub == f.failOn {
		return fmt.Errorf("%w: %s exited 1", mmseqs.ErrClusteringTool, sub)
	}
	if sub == f.skipOutput {
		return nil
	}

	touch := func(path, content string) error {
		return os.WriteFile(path, []byte(content), 0o600)
	}
	switch sub {
	case "cluster":
		out := args[2]
		if err := touch(out, "db"); err != nil {
			return err
		}
		return touch(out+".index", "idx")
	case "createsubdb":
		out := args[3]
		if err := touch(out, "db"); err != nil {
			return err
		}
		return touch(out+".index", "idx")
	case "convert2fasta":
		return touch(args[2], ">rep\nACGT\n")
	case "createtsv":
		return touch(args[4], f.table)
	default:
		return fmt.Errorf("unexpected sub-command %s", sub)
	}
}

func newParentDB(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "input_db")
	if err := os.WriteFile(path, []byte("db"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunnerCluster(t *testing.T) {
	Convey("Given a runner over a fake tool", t, func() {
		dir := t.TempDir()
		parent := newParentDB(t, dir)
		fake := &fakeCommander{table: "id_01 id_01\nid_01 id_02\nid_03 id_03\n"}
		runner := mmseqs.NewRunner(dir,
			mmseqs.WithCommander(fake),
			mmseqs.WithBinary("mmseqs"),
		)

		Convey("When a pass succeeds", func() {
			art, err := runner.Cluster(context.Background(), 99, parent)

			Convey("Then all artifacts exist and the count matches", func() {
				So(err, ShouldBeNil)
				So(art, ShouldNotBeNil)
				So(art.Level, ShouldEqual, types.Level(99))
				So(art.ClusterCount, ShouldEqual, 2)

				for _, path := range []string{art.ClusterDB, art.SequenceDB, art.FASTA, art.Assignments, art.SizeSummary} {
					_, statErr := os.Stat(path)
					So(statErr, ShouldBeNil)
				}
			})

			Convey("Then the size summary is sorted with one row per representative", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(art.SizeSummary)
				So(readErr, ShouldBeNil)
				So(string(data), ShouldEqual, "2 id_01\n1 id_03\n")
			})

			Convey("Then sub-commands run in dependency order with fixed flags", func() {
				So(err, ShouldBeNil)
				So(len(fake.calls), ShouldEqual, 4)
				So(fake.calls[0][1], ShouldEqual, "cluster")
				So(fake.calls[1][1], ShouldEqual, "createsubdb")
				So(fake.calls[2][1], ShouldEqual, "convert2fasta")
				So(fake.calls[3][1], ShouldEqual, "createtsv")

				clusterArgs := strings.Join(fake.calls[0], " ")
				So(clusterArgs, ShouldContainSubstring, "--min-seq-id 0.99")
				So(clusterArgs, ShouldContainSubstring, "-c 0.8")
				So(clusterArgs, ShouldContainSubstring, "--cov-mode 1")
			})
		})

		Convey("When a mid-chain sub-command exits non-zero", func() {
			fake.failOn = "createsubdb"

			art, err := runner.Cluster(context.Background(), 96, parent)

			Convey("Then the failure names the sub-step and level, and later steps never run", func() {
				So(art, ShouldBeNil)
				So(err, ShouldNotBeNil)
				So(err, ShouldWrap, mmseqs.ErrClusteringTool)
				So(err.Error(), ShouldContainSubstring, "createsubdb")
				So(err.Error(), ShouldContainSubstring, "96")
				So(len(fake.calls), ShouldEqual, 2)
			})
		})

		Convey("When a sub-command exits zero without producing its artifact", func() {
			fake.skipOutput = "convert2fasta"

			art, err := runner.Cluster(context.Background(), 94, parent)

			Convey("Then the step fails with a missing artifact error", func() {
				So(art, ShouldBeNil)
				So(err, ShouldNotBeNil)
				So(err, ShouldWrap, mmseqs.ErrMissingArtifact)
				So(err.Error(), ShouldContainSubstring, "convert2fasta")
			})
		})

		Convey("When the parent dataset does not exist", func() {
			art, err := runner.Cluster(context.Background(), 99, filepath.Join(dir, "absent_db"))

			Convey("Then the step refuses to run the tool", func() {
				So(art, ShouldBeNil)
				So(err, ShouldNotBeNil)
				So(err, ShouldWrap, mmseqs.ErrMissingArtifact)
				So(len(fake.calls), ShouldEqual, 0)
			})
		})
	})
}

func TestWriteSizeSummary(t *testing.T) {
	Convey("Given an assignment table on disk", t, func() {
		dir := t.TempDir()
		tsv := filepath.Join(dir, "antiref95_cluster.tsv")
		out := filepath.Join(dir, "antiref95_cluster_sizes.tsv")

		Convey("When the table round-trips {A: A, B: A, C: C}", func() {
			So(os.WriteFile(tsv, []byte("A A\nA B\nC C\n"), 0o600), ShouldBeNil)

			count, err := mmseqs.WriteSizeSummary(tsv, out)

			Convey("Then the summary has counts {A:2, C:1}", func() {
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 2)
				data, readErr := os.ReadFile(out)
				So(readErr, ShouldBeNil)
				So(string(data), ShouldEqual, "2 A\n1 C\n")
			})
		})

		Convey("When the table has a malformed row", func() {
			So(os.WriteFile(tsv, []byte("A\n"), 0o600), ShouldBeNil)

			_, err := mmseqs.WriteSizeSummary(tsv, out)

			So(err, ShouldNotBeNil)
			So(err, ShouldWrap, lineage.ErrDataIntegrity)
		})
	})
}

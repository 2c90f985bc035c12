package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/antiref/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func clearConfigEnvVars() {
	for _, key := range []string{
		"ANTIREF_CONFIG",
		"ANTIREF_LOG_LEVEL",
		"ANTIREF_INPUT_DB",
		"ANTIREF_WORK_DIR",
		"ANTIREF_OUTPUT_DIR",
		"ANTIREF_MMSEQS_BIN",
		"ANTIREF_MANIFEST_WORKERS",
		"ANTIREF_BASELINE_LEVEL",
		"ANTIREF_METRICS_ADDR",
	} {
		_ = os.Unsetenv(key)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading without a threshold sequence", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should refuse to run", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config from a YAML file", func() {
			clearConfigEnvVars()
			dir := t.TempDir()
			path := filepath.Join(dir, "antiref.yaml")
			yamlContent := `
log_level: debug
thresholds: [100, 99, 98, 96, 94, 92, 90]
input_db: /data/seqdb
work_dir: /scratch/antiref
output_dir: /data/out
manifest_workers: 4
`
			convey.So(os.WriteFile(path, []byte(yamlContent), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("ANTIREF_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should layer file values over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.Thresholds, convey.ShouldResemble, []int{100, 99, 98, 96, 94, 92, 90})
				convey.So(cfg.InputDB, convey.ShouldEqual, "/data/seqdb")
				convey.So(cfg.WorkDir, convey.ShouldEqual, "/scratch/antiref")
				convey.So(cfg.OutputDir, convey.ShouldEqual, "/data/out")
				convey.So(cfg.ManifestWorkers, convey.ShouldEqual, 4)
				convey.So(cfg.MMseqsBin, convey.ShouldEqual, "mmseqs")
			})

			convey.Convey("And environment variables override the file", func() {
				_ = os.Setenv("ANTIREF_INPUT_DB", "/data/other_db")
				_ = os.Setenv("ANTIREF_MANIFEST_WORKERS", "8")

				cfg, err := config.Load(ctx)

				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.InputDB, convey.ShouldEqual, "/data/other_db")
				convey.So(cfg.ManifestWorkers, convey.ShouldEqual, 8)
			})
		})
	})
}

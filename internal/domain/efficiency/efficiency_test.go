package efficiency_test

import (
	"bytes"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/antiref/internal/domain/efficiency"
	"github.com/okian/antiref/internal/domain/types"
)

func TestCalculatorCompute(t *testing.T) {
	Convey("Given per-level cluster counts", t, func() {
		levels := types.LevelsFromInts([]int{100, 99, 90})
		counts := map[types.Level]int{
			100: 1000,
			99:  800,
			90:  250,
		}
		calc := efficiency.NewCalculator(100)

		Convey("When computing ratios", func() {
			records, err := calc.Compute(levels, counts)

			Convey("Then one record per level comes back in input order", func() {
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 3)
				So(records[0].Level, ShouldEqual, types.Level(100))
				So(records[1].Level, ShouldEqual, types.Level(99))
				So(records[2].Level, ShouldEqual, types.Level(90))
			})

			Convey("Then the baseline ratio is exactly 1.0", func() {
				So(err, ShouldBeNil)
				So(records[0].Efficiency, ShouldEqual, 1.0)
			})

			Convey("Then every ratio lies in (0, 1] and is non-increasing", func() {
				So(err, ShouldBeNil)
				prev := 1.0
				for _, r := range records {
					So(r.Efficiency, ShouldBeGreaterThan, 0)
					So(r.Efficiency, ShouldBeLessThanOrEqualTo, 1.0)
					So(r.Efficiency, ShouldBeLessThanOrEqualTo, prev)
					prev = r.Efficiency
				}
			})
		})

		Convey("When the baseline count is missing", func() {
			calc := efficiency.NewCalculator(95)

			_, err := calc.Compute(levels, counts)

			So(err, ShouldNotBeNil)
			So(err, ShouldWrap, efficiency.ErrBaselineCount)
		})

		Convey("When the baseline count is zero", func() {
			counts[100] = 0

			_, err := calc.Compute(levels, counts)

			So(err, ShouldNotBeNil)
			So(err, ShouldWrap, efficiency.ErrBaselineCount)
		})

		Convey("When a level has no count", func() {
			delete(counts, 90)

			_, err := calc.Compute(levels, counts)

			So(err, ShouldNotBeNil)
			So(err, ShouldWrap, efficiency.ErrMissingCount)
		})
	})
}

func TestWriteCSV(t *testing.T) {
	Convey("Given computed efficiency records", t, func() {
		records := []efficiency.Record{
			{Level: 100, Clusters: 1000, Efficiency: 1.0},
			{Level: 99, Clusters: 800, Efficiency: 0.8},
			{Level: 90, Clusters: 250, Efficiency: 0.25},
		}

		Convey("When writing the report", func() {
			var buf bytes.Buffer
			err := efficiency.WriteCSV(&buf, records)

			Convey("Then it emits the documented columns in input order", func() {
				So(err, ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
				So(lines[0], ShouldEqual, "clustering_identity,clusters,efficiency")
				So(lines[1], ShouldEqual, "100,1000,1")
				So(lines[2], ShouldEqual, "99,800,0.8")
				So(lines[3], ShouldEqual, "90,250,0.25")
			})
		})
	})
}

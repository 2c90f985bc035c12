package types_test

import (
	"testing"

	types "github.com/okian/antiref/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLevel(t *testing.T) {
	Convey("Given a Level", t, func() {
		Convey("When converting to a similarity fraction", func() {
			So(types.Level(92).Fraction(), ShouldEqual, 0.92)
			So(types.Level(100).Fraction(), ShouldEqual, 1.0)
		})

		Convey("When rendering the fraction for the tool invocation", func() {
			So(types.Level(100).FractionString(), ShouldEqual, "1")
			So(types.Level(92).FractionString(), ShouldEqual, "0.92")
			So(types.Level(90).FractionString(), ShouldEqual, "0.9")
		})

		Convey("When deriving the artifact namespace", func() {
			So(types.Level(99).ArtifactName(), ShouldEqual, "antiref99")
			So(types.Level(100).ArtifactName(), ShouldEqual, "antiref100")
		})
	})
}

func TestValidateLevels(t *testing.T) {
	Convey("Given threshold sequences", t, func() {
		Convey("When the sequence is strictly decreasing and in range", func() {
			levels := types.LevelsFromInts([]int{100, 99, 98, 96, 94, 92, 90})

			So(types.ValidateLevels(levels), ShouldBeNil)
		})

		Convey("When the sequence is empty", func() {
			err := types.ValidateLevels(nil)

			So(err, ShouldNotBeNil)
			So(err, ShouldWrap, types.ErrInvalidThresholds)
		})

		Convey("When the sequence is not strictly decreasing", func() {
			err := types.ValidateLevels(types.LevelsFromInts([]int{100, 99, 99}))

			So(err, ShouldNotBeNil)
			So(err, ShouldWrap, types.ErrInvalidThresholds)
		})

		Convey("When a threshold is out of range", func() {
			So(types.ValidateLevels(types.LevelsFromInts([]int{101, 90})), ShouldNotBeNil)
			So(types.ValidateLevels(types.LevelsFromInts([]int{90, 0})), ShouldNotBeNil)
		})
	})
}

func TestContainsLevel(t *testing.T) {
	Convey("Given a threshold sequence", t, func() {
		levels := types.LevelsFromInts([]int{100, 99, 90})

		Convey("Then membership checks should behave", func() {
			So(types.ContainsLevel(levels, 99), ShouldBeTrue)
			So(types.ContainsLevel(levels, 95), ShouldBeFalse)
		})
	})
}

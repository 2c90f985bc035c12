// Package types contains common types used across the pipeline.
package types

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinel kinds for threshold validation errors.
var (
	ErrInvalidThresholds = errors.New("invalid threshold sequence")
)

// Level is a sequence-identity threshold expressed as an integer percentage.
// It names one clustering pass and the namespace of all artifacts at that
// pass (e.g. antiref99).
type Level int

// Fraction returns the threshold as the similarity fraction handed to the
// clustering tool (92 -> 0.92).
func (l Level) Fraction() float64 {
	return float64(l) / 100
}

// FractionString renders Fraction without trailing zeros (100 -> "1").
func (l Level) FractionString() string {
	return strconv.FormatFloat(l.Fraction(), 'f', -1, 64)
}

// ArtifactName returns the level's artifact namespace, e.g. "antiref99".
func (l Level) ArtifactName() string {
	return "antiref" + strconv.Itoa(int(l))
}

func (l Level) String() string {
	return strconv.Itoa(int(l))
}

// LevelsFromInts converts a plain int slice, as carried by configuration.
func LevelsFromInts(values []int) []Level {
	levels := make([]Level, len(values))
	for i, v := range values {
		levels[i] = Level(v)
	}
	return levels
}

// ValidateLevels checks that levels form a usable threshold sequence:
// non-empty, each in (0, 100], and strictly decreasing. The ordering rule
// is what guarantees each pass consumes the previous pass's representatives.
func ValidateLevels(levels []Level) error {
	if len(levels) == 0 {
		return fmt.Errorf("%w: no thresholds configured", ErrInvalidThresholds)
	}
	for i, l := range levels {
		if l <= 0 || l > 100 {
			return fmt.Errorf("%w: threshold %d out of range (0, 100]", ErrInvalidThresholds, l)
		}
		if i > 0 && levels[i-1] <= l {
			return fmt.Errorf("%w: thresholds must be strictly decreasing, got %d after %d",
				ErrInvalidThresholds, l, levels[i-1])
		}
	}
	return nil
}

// ContainsLevel reports whether level appears in levels.
func ContainsLevel(levels []Level, level Level) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}

package app

import "errors"

// Sentinel kinds for pipeline resource errors.
var (
	// ErrResource marks a missing or unusable input/scratch/output path,
	// surfaced before any clustering step runs.
	ErrResource = errors.New("pipeline resource unavailable")
)

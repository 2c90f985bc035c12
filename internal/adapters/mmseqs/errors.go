package mmseqs

import "errors"

// Sentinel kinds for clustering step errors.
var (
	// ErrClusteringTool marks a non-zero exit from the external tool.
	ErrClusteringTool = errors.New("clustering tool failed")

	// ErrMissingArtifact marks an expected output the tool did not produce.
	// A step with missing output is as fatal as a non-zero exit: downstream
	// passes must never run against an incomplete parent.
	ErrMissingArtifact = errors.New("expected clustering artifact missing")
)

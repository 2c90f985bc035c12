package lineage

import "errors"

// Sentinel kinds for lineage errors.
var (
	// ErrDataIntegrity marks an assignment table that contradicts the
	// one-representative-per-member invariant (duplicate or malformed rows).
	ErrDataIntegrity = errors.New("assignment table integrity violation")

	// ErrChainResolution marks a base identifier that cannot be threaded
	// through every level, i.e. a broken parent/child dataset relationship.
	ErrChainResolution = errors.New("lineage chain resolution failed")
)

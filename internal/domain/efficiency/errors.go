package efficiency

import "errors"

// Sentinel kinds for efficiency calculation errors.
var (
	ErrBaselineCount = errors.New("baseline cluster count unusable")
	ErrMissingCount  = errors.New("cluster count missing for level")
)

package graph

import "errors"

// Common sentinel errors
var (
	ErrNoFragments       = errors.New("no edge fragments")
	ErrFragmentOverlap   = errors.New("fragment major ranges overlap")
	ErrMalformedFragment = errors.New("malformed fragment")
	ErrMixedWeights      = errors.New("weighted and unweighted fragments mixed")
	ErrVertexOutOfRange  = errors.New("vertex id outside owned major ranges")
	ErrBadPartitionFile  = errors.New("invalid partition file")
)

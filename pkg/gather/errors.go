package gather

import (
	"errors"
	"fmt"
	"math"
)

// MaxDedupElements is the addressing capacity of the deduplication grouping
// step. Inputs larger than this must be pre-sharded by the caller.
const MaxDedupElements = math.MaxUint32

// Common sentinel errors
var (
	ErrCapacityExceeded = errors.New("element count exceeds grouping capacity")
	ErrBadSampleShape   = errors.New("chosen index count does not match actives and slots per major")
	ErrLengthMismatch   = errors.New("parallel array lengths differ")
	ErrUnsortedActives  = errors.New("active majors not sorted")
)

// EngineError provides structured error information for engine operations.
// Fatal conditions abort the whole synchronous round; a failed collective
// cannot be re-entered without resetting every participant.
type EngineError struct {
	Op    string // operation that failed (e.g. "MergeActiveMajors")
	Rank  int    // worker rank, -1 when not rank-specific
	Cause error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Rank >= 0 {
		return fmt.Sprintf("%s (rank %d): %v", e.Op, e.Rank, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

func opErr(op string, rank int, cause error) error {
	if cause == nil {
		return nil
	}
	return &EngineError{Op: op, Rank: rank, Cause: cause}
}

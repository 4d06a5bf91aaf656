// Package comm provides the collective exchange primitives the gather engine
// coordinates through: a variable-length all-gather and a rank-ordered ring
// accumulation. All cross-worker traffic goes through these collectives; a
// partially-completed collective cannot be retried, so any failure aborts the
// whole round.
package comm

import "errors"

// Common sentinel errors
var (
	ErrGridMismatch   = errors.New("worker count inconsistent with grid shape")
	ErrRankOutOfRange = errors.New("rank outside group")
	ErrLengthMismatch = errors.New("peer array length differs from local")
	ErrBadFrame       = errors.New("malformed collective frame")
)

// Exchanger is the collective capability shared by every worker of one
// logical group (the workers that jointly own a major range).
//
// RingAccumulate runs the rank-ordered chain: rank 0 seeds it with its local
// array, each following rank receives the running sum of all lower ranks,
// adds its own contribution, and forwards the result; the last rank
// broadcasts the inclusive total back to the whole group. The returned
// exclusive array holds the sum of strictly-lower ranks. Hop ordering is
// enforced by blocking receives, so the chain is strictly sequential within
// the group.
type Exchanger interface {
	Rank() int
	Size() int

	// AllGatherVar collects every member's local array into one slice,
	// concatenated in rank order. Lengths may differ per member.
	AllGatherVar(local []uint64) ([]uint64, error)

	// RingAccumulate returns the exclusive prefix and the inclusive total of
	// the members' equal-length local arrays.
	RingAccumulate(local []uint64) (exclusive, total []uint64, err error)
}

// Solo is the single-worker exchanger: every collective degenerates to the
// local data, with no coordination at all.
type Solo struct{}

// Rank returns 0.
func (Solo) Rank() int { return 0 }

// Size returns 1.
func (Solo) Size() int { return 1 }

// AllGatherVar returns a copy of the local array.
func (Solo) AllGatherVar(local []uint64) ([]uint64, error) {
	out := make([]uint64, len(local))
	copy(out, local)
	return out, nil
}

// RingAccumulate returns an all-zero exclusive prefix and the local array as
// the global total.
func (Solo) RingAccumulate(local []uint64) ([]uint64, []uint64, error) {
	total := make([]uint64, len(local))
	copy(total, local)
	return make([]uint64, len(local)), total, nil
}

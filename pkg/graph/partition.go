package graph

import (
	"fmt"
	"sort"
)

// EdgePartition is one immutable adjacency fragment owned by a worker.
//
// Majors in [MajorFirst, HyperFirst) form the sparse region: row i of the
// region is addressed directly at Offsets[i]. Majors in [HyperFirst,
// MajorLast) form the hyper-sparse region: only the few majors with local
// edges appear, listed in sorted order in HyperMajors, and their rows
// continue the Offsets array after the sparse rows. A major absent from
// HyperMajors has local degree zero.
type EdgePartition struct {
	MajorFirst uint64 // first owned major id (inclusive)
	MajorLast  uint64 // one past the last owned major id
	HyperFirst uint64 // start of the hyper-sparse region; == MajorLast when none

	Offsets     []uint64  // len = sparse rows + len(HyperMajors) + 1
	Indices     []uint64  // minor ids, len = local edge count
	Weights     []float64 // parallel to Indices; nil for unweighted graphs
	HyperMajors []uint64  // sorted distinct majors in the hyper-sparse region
}

// SegmentBoundaries are the ordered cut points that subdivide a fragment's
// major range into degree tiers.
type SegmentBoundaries struct {
	RangeFirst uint64
	HyperFirst uint64
	RangeLast  uint64
}

// Boundaries returns the fragment's segment cut points.
func (p *EdgePartition) Boundaries() SegmentBoundaries {
	return SegmentBoundaries{
		RangeFirst: p.MajorFirst,
		HyperFirst: p.HyperFirst,
		RangeLast:  p.MajorLast,
	}
}

// SparseCount returns the number of majors in the sparse region.
func (p *EdgePartition) SparseCount() uint64 {
	return p.HyperFirst - p.MajorFirst
}

// RangeSize returns the number of majors in the fragment's range.
func (p *EdgePartition) RangeSize() uint64 {
	return p.MajorLast - p.MajorFirst
}

// Weighted reports whether the fragment carries edge weights.
func (p *EdgePartition) Weighted() bool {
	return p.Weights != nil
}

// Position resolves a major id to its row in the Offsets array.
// Returns false for hyper-sparse majors with no local edges.
// The caller must have checked that v falls inside the fragment's range.
func (p *EdgePartition) Position(v uint64) (int, bool) {
	if v < p.HyperFirst {
		return int(v - p.MajorFirst), true
	}
	n := len(p.HyperMajors)
	i := sort.Search(n, func(i int) bool { return p.HyperMajors[i] >= v })
	if i < n && p.HyperMajors[i] == v {
		return int(p.SparseCount()) + i, true
	}
	return 0, false
}

// DegreeAt returns the local degree of the row at position pos.
func (p *EdgePartition) DegreeAt(pos int) uint64 {
	return p.Offsets[pos+1] - p.Offsets[pos]
}

// LocalDegree returns the local degree of major v, zero when the fragment
// holds no edges for it.
func (p *EdgePartition) LocalDegree(v uint64) uint64 {
	pos, ok := p.Position(v)
	if !ok {
		return 0
	}
	return p.DegreeAt(pos)
}

// Validate checks the fragment's structural invariants.
func (p *EdgePartition) Validate() error {
	if p.MajorLast < p.MajorFirst || p.HyperFirst < p.MajorFirst || p.HyperFirst > p.MajorLast {
		return fmt.Errorf("%w: range [%d,%d) hyper start %d",
			ErrMalformedFragment, p.MajorFirst, p.MajorLast, p.HyperFirst)
	}
	rows := p.SparseCount() + uint64(len(p.HyperMajors))
	if uint64(len(p.Offsets)) != rows+1 {
		return fmt.Errorf("%w: %d offsets for %d rows", ErrMalformedFragment, len(p.Offsets), rows)
	}
	for i := 1; i < len(p.Offsets); i++ {
		if p.Offsets[i] < p.Offsets[i-1] {
			return fmt.Errorf("%w: offsets decrease at row %d", ErrMalformedFragment, i-1)
		}
	}
	if p.Offsets[len(p.Offsets)-1] != uint64(len(p.Indices)) {
		return fmt.Errorf("%w: offsets end at %d, %d indices",
			ErrMalformedFragment, p.Offsets[len(p.Offsets)-1], len(p.Indices))
	}
	if p.Weights != nil && len(p.Weights) != len(p.Indices) {
		return fmt.Errorf("%w: %d weights for %d indices",
			ErrMalformedFragment, len(p.Weights), len(p.Indices))
	}
	for i, v := range p.HyperMajors {
		if v < p.HyperFirst || v >= p.MajorLast {
			return fmt.Errorf("%w: hyper-sparse major %d outside [%d,%d)",
				ErrMalformedFragment, v, p.HyperFirst, p.MajorLast)
		}
		if i > 0 && p.HyperMajors[i-1] >= v {
			return fmt.Errorf("%w: hyper-sparse majors not strictly ascending at %d",
				ErrMalformedFragment, i)
		}
	}
	return nil
}

// GlobalDegreeTable holds, per owned major (worker-wide, ordered by vertex
// id), the sum of lower-rank workers' local degrees and the global total.
type GlobalDegreeTable struct {
	ExclusivePrefix []uint64
	Total           []uint64
}

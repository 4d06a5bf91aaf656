package gather

import (
	"github.com/dd0wney/cluso-gather/pkg/graph"
	"github.com/dd0wney/cluso-gather/pkg/parallel"
)

// GatherOneHop emits, for every active major, exactly its local degree's
// worth of (major, minor[, weight]) tuples. Output slots are pre-addressed
// by an exclusive prefix sum of the per-active local degrees, so the write
// pass runs in parallel with no synchronization: every active writes to its
// own disjoint slot range. Actives owned by no local fragment contribute
// zero tuples; their edges live on other workers.
//
// The active list must be sorted ascending (the merged output of
// MergeActiveMajors). Duplicates are allowed and emit their edges once per
// occurrence.
func GatherOneHop(dir *graph.Directory, active []uint64, pool *parallel.Pool) (*EdgeList, error) {
	if !sortedAscending(active) {
		return nil, opErr("GatherOneHop", -1, ErrUnsortedActives)
	}

	segs := PartitionActiveSegments(dir, active)
	degrees := activeLocalDegrees(dir, active, segs, pool)

	offsets := make([]uint64, len(active)+1)
	for i, d := range degrees {
		offsets[i+1] = offsets[i] + d
	}

	out := newEdgeList(int(offsets[len(active)]), dir.Weighted())
	for f, seg := range segs {
		p := dir.Fragment(f)
		forChunks(pool, seg.RangeEnd-seg.RangeBegin, func(lo, hi int) {
			for i := seg.RangeBegin + lo; i < seg.RangeBegin+hi; i++ {
				deg := degrees[i]
				if deg == 0 {
					continue
				}
				pos, _ := p.Position(active[i])
				start := p.Offsets[pos]
				o := offsets[i]
				for j := uint64(0); j < deg; j++ {
					out.Majors[o+j] = active[i]
					out.Minors[o+j] = p.Indices[start+j]
				}
				if out.Weights != nil {
					copy(out.Weights[o:o+deg], p.Weights[start:start+deg])
				}
			}
		})
	}
	return out, nil
}

// activeLocalDegrees computes per-active local degrees with one uniform pass
// per fragment region: sparse actives address their row directly, hyper-
// sparse actives go through the membership search. Actives outside every
// fragment keep degree zero.
func activeLocalDegrees(dir *graph.Directory, active []uint64, segs []ActiveSegments, pool *parallel.Pool) []uint64 {
	degrees := make([]uint64, len(active))
	for f, seg := range segs {
		p := dir.Fragment(f)

		forChunks(pool, seg.HyperBegin-seg.RangeBegin, func(lo, hi int) {
			for i := seg.RangeBegin + lo; i < seg.RangeBegin+hi; i++ {
				degrees[i] = p.DegreeAt(int(active[i] - p.MajorFirst))
			}
		})

		forChunks(pool, seg.RangeEnd-seg.HyperBegin, func(lo, hi int) {
			for i := seg.HyperBegin + lo; i < seg.HyperBegin+hi; i++ {
				degrees[i] = p.LocalDegree(active[i])
			}
		})
	}
	return degrees
}

func sortedAscending(ids []uint64) bool {
	for i := 1; i < len(ids); i++ {
		if ids[i] < ids[i-1] {
			return false
		}
	}
	return true
}

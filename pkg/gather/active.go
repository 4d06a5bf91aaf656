package gather

import (
	"fmt"
	"sort"

	"github.com/dd0wney/cluso-gather/pkg/comm"
	"github.com/dd0wney/cluso-gather/pkg/graph"
)

// MergeActiveMajors gathers every group member's candidate list into one
// sorted active-major list visible to the whole group. Each worker's local
// candidates must name vertices it owns; the merged list may contain majors
// owned by other members, which later stages simply skip. Concatenation
// across ranks does not preserve order, so the result is re-sorted.
func MergeActiveMajors(ex comm.Exchanger, local []uint64, dir *graph.Directory) ([]uint64, error) {
	for _, v := range local {
		if _, ok := dir.Locate(v); !ok {
			return nil, opErr("MergeActiveMajors", ex.Rank(),
				fmt.Errorf("%w: %d", graph.ErrVertexOutOfRange, v))
		}
	}

	merged, err := ex.AllGatherVar(local)
	if err != nil {
		return nil, opErr("MergeActiveMajors", ex.Rank(), err)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i] < merged[j] })
	return merged, nil
}

// ActiveSegments marks, for one fragment, where the sorted active-major list
// crosses the fragment's boundaries. Actives before RangeBegin lie below the
// fragment's range, [RangeBegin, HyperBegin) fall in the sparse region,
// [HyperBegin, RangeEnd) in the hyper-sparse region, and the rest at or
// beyond the range end.
type ActiveSegments struct {
	RangeBegin int
	HyperBegin int
	RangeEnd   int
}

// PartitionActiveSegments cuts the sorted active-major list against every
// local fragment's boundaries via lower-bound search, so each region can be
// processed by its own uniform pass.
func PartitionActiveSegments(dir *graph.Directory, active []uint64) []ActiveSegments {
	segs := make([]ActiveSegments, dir.Fragments())
	for f := range segs {
		b := dir.Fragment(f).Boundaries()
		segs[f] = ActiveSegments{
			RangeBegin: lowerBound(active, b.RangeFirst),
			HyperBegin: lowerBound(active, b.HyperFirst),
			RangeEnd:   lowerBound(active, b.RangeLast),
		}
	}
	return segs
}

// lowerBound returns the index of the first element >= v.
func lowerBound(sorted []uint64, v uint64) int {
	return sort.Search(len(sorted), func(i int) bool { return sorted[i] >= v })
}

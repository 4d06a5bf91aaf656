package gather

import (
	"github.com/dd0wney/cluso-gather/pkg/comm"
	"github.com/dd0wney/cluso-gather/pkg/graph"
	"github.com/dd0wney/cluso-gather/pkg/parallel"
)

// ComputeLocalDegrees builds the worker-wide local out-degree array: one
// entry per owned major, ordered by vertex id across all local fragments.
// Sparse-region majors read their offset difference directly; hyper-sparse
// majors not present in the fragment's id list have degree zero and still
// get an entry.
func ComputeLocalDegrees(dir *graph.Directory, pool *parallel.Pool) []uint64 {
	out := make([]uint64, dir.OwnedCount())

	for f := 0; f < dir.Fragments(); f++ {
		p := dir.Fragment(f)
		base := dir.DegreeIndex(f, p.MajorFirst)

		sparse := int(p.SparseCount())
		forChunks(pool, sparse, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out[base+uint64(i)] = p.DegreeAt(i)
			}
		})

		// Hyper-sparse rows scatter into their major's slot; every other
		// slot in the region stays zero.
		for j, v := range p.HyperMajors {
			out[base+(v-p.MajorFirst)] = p.DegreeAt(sparse + j)
		}
	}
	return out
}

// ComputeGlobalDegreeInfo runs the rank-ordered ring reduction across the
// workers that co-own this major range, producing per owned major the
// exclusive prefix (sum of strictly-lower ranks) and the global total.
// With a single worker the ring degenerates to zeros and the local degrees.
func ComputeGlobalDegreeInfo(dir *graph.Directory, ex comm.Exchanger, pool *parallel.Pool) (*graph.GlobalDegreeTable, error) {
	local := ComputeLocalDegrees(dir, pool)
	exclusive, total, err := ex.RingAccumulate(local)
	if err != nil {
		return nil, opErr("ComputeGlobalDegreeInfo", ex.Rank(), err)
	}
	return &graph.GlobalDegreeTable{ExclusivePrefix: exclusive, Total: total}, nil
}

// ResolveActiveDegrees returns the global degree of each active major.
// Actives owned by no local fragment resolve to zero; the workers that do
// own them report the true value.
func ResolveActiveDegrees(dir *graph.Directory, table *graph.GlobalDegreeTable, active []uint64) []uint64 {
	out := make([]uint64, len(active))
	for i, v := range active {
		if f, ok := dir.Locate(v); ok {
			out[i] = table.Total[dir.DegreeIndex(f, v)]
		}
	}
	return out
}

func forChunks(pool *parallel.Pool, n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if pool == nil {
		fn(0, n)
		return
	}
	pool.ForChunks(n, fn)
}

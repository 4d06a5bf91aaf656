package gather

import (
	"fmt"

	"github.com/dd0wney/cluso-gather/pkg/graph"
	"github.com/dd0wney/cluso-gather/pkg/parallel"
)

// GatherSampled resolves caller-chosen neighbor indices into edges. For each
// active major the caller supplies slotsPerMajor local indices picked
// against the major's *global* degree (chosen[i*slotsPerMajor+j] is the j-th
// pick for active i). A major's edges may span several workers' fragments,
// so each worker subtracts its fragment's exclusive-prefix degree from the
// requested index: picks that land inside [0, localDegree) resolve to a real
// edge here, all others are marked with the sentinel vertex id. A sentinel
// is an expected miss (the neighbor lives on another worker), not an error;
// CompactEdges drops them.
func GatherSampled(dir *graph.Directory, active []uint64, chosen []uint64, slotsPerMajor int, table *graph.GlobalDegreeTable, pool *parallel.Pool) (*EdgeList, error) {
	if slotsPerMajor < 1 {
		return nil, opErr("GatherSampled", -1, fmt.Errorf("%w: %d slots per major", ErrBadSampleShape, slotsPerMajor))
	}
	if len(chosen) != len(active)*slotsPerMajor {
		return nil, opErr("GatherSampled", -1, fmt.Errorf("%w: %d chosen for %d actives x %d",
			ErrBadSampleShape, len(chosen), len(active), slotsPerMajor))
	}

	sentinel := dir.Sentinel()
	out := newEdgeList(len(chosen), dir.Weighted())

	forChunks(pool, len(active), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			v := active[i]
			base := i * slotsPerMajor

			f, owned := dir.Locate(v)
			var (
				pos      int
				localDeg uint64
				exclBase uint64
			)
			if owned {
				p := dir.Fragment(f)
				var havePos bool
				pos, havePos = p.Position(v)
				if havePos {
					localDeg = p.DegreeAt(pos)
				}
				exclBase = table.ExclusivePrefix[dir.DegreeIndex(f, v)]
			}

			for j := 0; j < slotsPerMajor; j++ {
				slot := base + j
				out.Majors[slot] = v

				g := chosen[slot]
				// Unsigned arithmetic: a pick below this worker's prefix
				// wraps past localDeg and misses, which is what we want.
				adj := g - exclBase
				if !owned || localDeg == 0 || adj >= localDeg {
					out.Minors[slot] = sentinel
					continue
				}

				p := dir.Fragment(f)
				e := p.Offsets[pos] + adj
				out.Minors[slot] = p.Indices[e]
				if out.Weights != nil {
					out.Weights[slot] = p.Weights[e]
				}
			}
		}
	})
	return out, nil
}

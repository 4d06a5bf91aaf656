package gather

import (
	"fmt"
	"sort"
)

// CompactEdges removes every tuple whose minor is the sentinel vertex id,
// preserving the order of the surviving tuples. Sentinels are the expected
// misses of a sampled gather.
func CompactEdges(list *EdgeList, sentinel uint64) *EdgeList {
	kept := 0
	for _, m := range list.Minors {
		if m != sentinel {
			kept++
		}
	}

	out := newEdgeList(kept, list.Weighted())
	w := 0
	for i, m := range list.Minors {
		if m == sentinel {
			continue
		}
		out.Majors[w] = list.Majors[i]
		out.Minors[w] = m
		if out.Weights != nil {
			out.Weights[w] = list.Weights[i]
		}
		w++
	}
	return out
}

// Deduplicate sorts the tuples lexicographically, groups identical ones and
// returns one representative per group plus its occurrence count. The sum of
// counts equals the input length. Inputs beyond MaxDedupElements exceed the
// grouping step's addressing capacity and fail; callers pre-shard instead.
func Deduplicate(list *EdgeList) (*EdgeList, []uint64, error) {
	n := list.Len()
	if uint64(n) > uint64(MaxDedupElements) {
		return nil, nil, opErr("Deduplicate", -1,
			fmt.Errorf("%w: %d elements, limit %d", ErrCapacityExceeded, n, uint64(MaxDedupElements)))
	}
	if len(list.Minors) != n || (list.Weights != nil && len(list.Weights) != n) {
		return nil, nil, opErr("Deduplicate", -1, ErrLengthMismatch)
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sort.Slice(perm, func(a, b int) bool {
		i, j := perm[a], perm[b]
		if list.Majors[i] != list.Majors[j] {
			return list.Majors[i] < list.Majors[j]
		}
		if list.Minors[i] != list.Minors[j] {
			return list.Minors[i] < list.Minors[j]
		}
		if list.Weights != nil {
			return list.Weights[i] < list.Weights[j]
		}
		return false
	})

	out := &EdgeList{}
	if list.Weighted() {
		out.Weights = []float64{}
	}
	var counts []uint64
	for a := 0; a < n; {
		i := perm[a]
		b := a + 1
		for b < n && sameTuple(list, i, perm[b]) {
			b++
		}
		out.Majors = append(out.Majors, list.Majors[i])
		out.Minors = append(out.Minors, list.Minors[i])
		if out.Weights != nil {
			out.Weights = append(out.Weights, list.Weights[i])
		}
		counts = append(counts, uint64(b-a))
		a = b
	}
	return out, counts, nil
}

func sameTuple(list *EdgeList, i, j int) bool {
	if list.Majors[i] != list.Majors[j] || list.Minors[i] != list.Minors[j] {
		return false
	}
	return list.Weights == nil || list.Weights[i] == list.Weights[j]
}

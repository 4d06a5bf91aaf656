package gather

import (
	"math"
	"testing"

	"github.com/dd0wney/cluso-gather/pkg/graph"
)

// makePartition builds a fragment for majors [first, last) with the
// hyper-sparse region starting at hyperFirst. adj maps each major to its
// minors; weights, when non-nil, parallels adj.
func makePartition(t testing.TB, first, last, hyperFirst uint64, adj map[uint64][]uint64, weights map[uint64][]float64) *graph.EdgePartition {
	t.Helper()

	p := &graph.EdgePartition{
		MajorFirst: first,
		MajorLast:  last,
		HyperFirst: hyperFirst,
	}
	if weights != nil {
		p.Weights = []float64{}
	}
	offsets := []uint64{0}

	appendRow := func(v uint64) {
		p.Indices = append(p.Indices, adj[v]...)
		if weights != nil {
			p.Weights = append(p.Weights, weights[v]...)
		}
		offsets = append(offsets, uint64(len(p.Indices)))
	}

	for v := first; v < hyperFirst; v++ {
		appendRow(v)
	}
	for v := hyperFirst; v < last; v++ {
		if len(adj[v]) > 0 {
			p.HyperMajors = append(p.HyperMajors, v)
			appendRow(v)
		}
	}
	p.Offsets = offsets

	if err := p.Validate(); err != nil {
		t.Fatalf("makePartition [%d,%d): %v", first, last, err)
	}
	return p
}

func makeDirectory(t testing.TB, total uint64, parts ...*graph.EdgePartition) *graph.Directory {
	t.Helper()
	dir, err := graph.NewDirectory(parts, total)
	if err != nil {
		t.Fatalf("NewDirectory: %v", err)
	}
	return dir
}

// buildCutDirectory slices one adjacency into fragments at the given cut
// points (cuts[0] must be 0 and cuts[last] the vertex count). Each fragment's
// hyper-sparse region starts halfway through its range so both layouts get
// exercised.
func buildCutDirectory(t testing.TB, total uint64, adj map[uint64][]uint64, cuts []uint64) *graph.Directory {
	t.Helper()
	parts := make([]*graph.EdgePartition, 0, len(cuts)-1)
	for i := 0; i+1 < len(cuts); i++ {
		first, last := cuts[i], cuts[i+1]
		hyper := first + (last-first)/2
		parts = append(parts, makePartition(t, first, last, hyper, sliceAdj(adj, first, last), nil))
	}
	return makeDirectory(t, total, parts...)
}

func sliceAdj(adj map[uint64][]uint64, first, last uint64) map[uint64][]uint64 {
	out := make(map[uint64][]uint64)
	for v, ms := range adj {
		if v >= first && v < last {
			out[v] = ms
		}
	}
	return out
}

type tuple struct {
	major, minor uint64
	weight       uint64 // float bits, 0 when unweighted
}

// multiset counts tuples so tests can compare gather outputs order-free.
func multiset(e *EdgeList) map[tuple]int {
	m := make(map[tuple]int, e.Len())
	for i := range e.Majors {
		tp := tuple{major: e.Majors[i], minor: e.Minors[i]}
		if e.Weights != nil {
			tp.weight = math.Float64bits(e.Weights[i])
		}
		m[tp]++
	}
	return m
}

func sameMultiset(t *testing.T, got, want *EdgeList) {
	t.Helper()
	g, w := multiset(got), multiset(want)
	if len(g) != len(w) {
		t.Fatalf("multiset sizes differ: got %d distinct, want %d", len(g), len(w))
	}
	for tp, n := range w {
		if g[tp] != n {
			t.Fatalf("tuple (%d,%d) count = %d, want %d", tp.major, tp.minor, g[tp], n)
		}
	}
}

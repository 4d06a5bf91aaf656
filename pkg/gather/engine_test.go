package gather

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/dd0wney/cluso-gather/pkg/comm"
	"github.com/dd0wney/cluso-gather/pkg/graph"
	"github.com/dd0wney/cluso-gather/pkg/metrics"
)

func soloEngine(t *testing.T, dir *graph.Directory) *Engine {
	t.Helper()
	return NewEngine(dir, comm.Solo{}, Options{Metrics: metrics.NewRegistry()})
}

func TestEngineRound(t *testing.T) {
	adj := map[uint64][]uint64{
		0: {1, 2},
		1: {2, 3},
	}
	dir := buildCutDirectory(t, 4, adj, []uint64{0, 2, 4})
	e := soloEngine(t, dir)

	res, err := e.Round([]uint64{0, 1})
	if err != nil {
		t.Fatalf("Round: %v", err)
	}
	if res.RoundID == "" {
		t.Error("empty RoundID")
	}
	if !reflect.DeepEqual(res.Active, []uint64{0, 1}) {
		t.Errorf("Active = %v, want [0 1]", res.Active)
	}
	if got := res.Degrees.Total[:2]; !reflect.DeepEqual(got, []uint64{2, 2}) {
		t.Errorf("Total[:2] = %v, want [2 2]", got)
	}

	want := &EdgeList{
		Majors: []uint64{0, 0, 1, 1},
		Minors: []uint64{1, 2, 2, 3},
	}
	sameMultiset(t, res.Edges, want)
}

func TestEngineRound_RejectsUnowned(t *testing.T) {
	dir := buildCutDirectory(t, 4, nil, []uint64{0, 4})
	e := soloEngine(t, dir)

	_, err := e.Round([]uint64{9})
	if !errors.Is(err, graph.ErrVertexOutOfRange) {
		t.Fatalf("Round = %v, want ErrVertexOutOfRange", err)
	}
}

func TestEngineSampledRound(t *testing.T) {
	adj := map[uint64][]uint64{
		0: {5, 6, 7},
		2: {8},
	}
	dir := buildCutDirectory(t, 10, adj, []uint64{0, 4})
	e := soloEngine(t, dir)

	var seenDegrees []uint64
	choose := func(active []uint64, globalDegree []uint64) []uint64 {
		seenDegrees = append([]uint64(nil), globalDegree...)
		// First in-range neighbor per major, second slot always a miss.
		picks := make([]uint64, 0, 2*len(active))
		for range active {
			picks = append(picks, 0, 99)
		}
		return picks
	}

	res, err := e.SampledRound([]uint64{0, 1, 2}, 2, choose)
	if err != nil {
		t.Fatalf("SampledRound: %v", err)
	}

	if !reflect.DeepEqual(seenDegrees, []uint64{3, 0, 1}) {
		t.Errorf("degrees seen by choose = %v, want [3 0 1]", seenDegrees)
	}

	// Misses are compacted away: only the two real picks survive.
	want := &EdgeList{
		Majors: []uint64{0, 2},
		Minors: []uint64{5, 8},
	}
	sameMultiset(t, res.Edges, want)
}

func TestEngineSampledRound_BadShape(t *testing.T) {
	dir := buildCutDirectory(t, 4, nil, []uint64{0, 4})
	e := soloEngine(t, dir)

	choose := func(active []uint64, globalDegree []uint64) []uint64 {
		return []uint64{0} // too short for 2 slots per major
	}
	if _, err := e.SampledRound([]uint64{0, 1}, 2, choose); !errors.Is(err, ErrBadSampleShape) {
		t.Fatalf("SampledRound = %v, want ErrBadSampleShape", err)
	}
}

// Two engines over a LocalGroup: each proposes a disjoint active set, both
// see the union, and together they gather the whole cut of the graph.
func TestEngineRound_TwoWorkers(t *testing.T) {
	adjs := []map[uint64][]uint64{
		{0: {1, 2}, 1: {3}},
		{2: {0}, 3: {1, 2}},
	}
	ranges := [][2]uint64{{0, 2}, {2, 4}}
	locals := [][]uint64{{1}, {2, 3}}

	peers := comm.NewLocalGroup(2)
	results := make([]*RoundResult, 2)
	errs := make([]error, 2)

	var wg sync.WaitGroup
	for rank := 0; rank < 2; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			first, last := ranges[rank][0], ranges[rank][1]
			p := makePartition(t, first, last, last, adjs[rank], nil)
			dir := makeDirectory(t, 4, p)
			e := NewEngine(dir, peers[rank], Options{Metrics: metrics.NewRegistry()})
			results[rank], errs[rank] = e.Round(locals[rank])
		}(rank)
	}
	wg.Wait()

	for rank := 0; rank < 2; rank++ {
		if errs[rank] != nil {
			t.Fatalf("rank %d: %v", rank, errs[rank])
		}
		if !reflect.DeepEqual(results[rank].Active, []uint64{1, 2, 3}) {
			t.Errorf("rank %d Active = %v, want [1 2 3]", rank, results[rank].Active)
		}
	}

	// The union of both workers' edges is exactly the active majors' rows.
	combined := &EdgeList{}
	for _, res := range results {
		combined.Majors = append(combined.Majors, res.Edges.Majors...)
		combined.Minors = append(combined.Minors, res.Edges.Minors...)
	}
	want := &EdgeList{
		Majors: []uint64{1, 2, 3, 3},
		Minors: []uint64{3, 0, 1, 2},
	}
	sameMultiset(t, combined, want)
}

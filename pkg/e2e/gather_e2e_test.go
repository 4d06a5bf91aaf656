package e2e

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-gather/pkg/comm"
	"github.com/dd0wney/cluso-gather/pkg/gather"
	"github.com/dd0wney/cluso-gather/pkg/graph"
	"github.com/dd0wney/cluso-gather/pkg/logging"
	"github.com/dd0wney/cluso-gather/pkg/metrics"
	"github.com/dd0wney/cluso-gather/pkg/parallel"
)

const (
	e2eVertices = 200
	e2eWorkers  = 4
	e2eSeed     = 42
)

// TestGatherWorkflow runs the complete worker lifecycle: generate a graph,
// cut its edges across four co-owning workers, persist each cut to a
// partition file, reload it through the mmap reader, then drive full and
// sampled rounds and check the results against the reference adjacency.
func TestGatherWorkflow(t *testing.T) {
	t.Log("=== E2E Test: Distributed Gather Workflow ===")

	// Step 1: Generate the reference adjacency.
	t.Log("Step 1: Generating reference graph...")
	rng := rand.New(rand.NewSource(e2eSeed))
	adj := make(map[uint64][]uint64)
	edgeCount := 0
	for v := uint64(0); v < e2eVertices; v++ {
		deg := rng.Intn(8)
		for i := 0; i < deg; i++ {
			adj[v] = append(adj[v], uint64(rng.Intn(e2eVertices)))
			edgeCount++
		}
	}
	t.Logf("✓ Generated %d edges over %d vertices", edgeCount, e2eVertices)

	// Step 2: Cut each vertex's edge list across the workers.
	t.Log("Step 2: Cutting edges across workers...")
	cuts := make([]map[uint64][]uint64, e2eWorkers)
	for w := range cuts {
		cuts[w] = make(map[uint64][]uint64)
	}
	for v, ms := range adj {
		for i, m := range ms {
			w := i % e2eWorkers
			cuts[w][v] = append(cuts[w][v], m)
		}
	}

	// Step 3: Persist each cut and reload it via the mmap reader.
	t.Log("Step 3: Writing and reloading partition files...")
	dir := t.TempDir()
	dirs := make([]*graph.Directory, e2eWorkers)
	for w := 0; w < e2eWorkers; w++ {
		p := buildPartition(t, cuts[w])
		path := filepath.Join(dir, fmt.Sprintf("worker-%d.cgf", w))
		require.NoError(t, graph.WritePartitionFile(path, p), "write worker %d", w)

		loaded, err := graph.ReadPartitionFile(path)
		require.NoError(t, err, "reload worker %d", w)

		dirs[w], err = graph.NewDirectory([]*graph.EdgePartition{loaded}, e2eVertices)
		require.NoError(t, err, "directory worker %d", w)
	}
	t.Log("✓ All partitions round-tripped through disk")

	// Step 4: Spin up the worker group and run a full round.
	t.Log("Step 4: Running a full one-hop round on 4 workers...")
	peers := comm.NewLocalGroup(e2eWorkers)
	pool, err := parallel.NewPool(2)
	require.NoError(t, err)
	defer pool.Close()

	active := []uint64{}
	for v := uint64(0); v < e2eVertices; v += 3 {
		active = append(active, v)
	}
	// Workers propose disjoint thirds; the merge must restore the union.
	proposals := make([][]uint64, e2eWorkers)
	for i, v := range active {
		w := i % e2eWorkers
		proposals[w] = append(proposals[w], v)
	}

	results := runRounds(t, dirs, peers, pool, func(e *gather.Engine, rank int) (*gather.RoundResult, error) {
		return e.Round(proposals[rank])
	})

	for rank, res := range results {
		assert.Equal(t, active, res.Active, "rank %d merged active set", rank)
	}

	// Step 5: The union of worker outputs is exactly the active rows.
	t.Log("Step 5: Verifying gathered edges against the reference...")
	got := make(map[[2]uint64]int)
	for _, res := range results {
		for i := range res.Edges.Majors {
			got[[2]uint64{res.Edges.Majors[i], res.Edges.Minors[i]}]++
		}
	}
	want := make(map[[2]uint64]int)
	for _, v := range active {
		for _, m := range adj[v] {
			want[[2]uint64{v, m}]++
		}
	}
	assert.Equal(t, want, got, "gathered edge multiset")
	t.Logf("✓ %d distinct tuples match", len(want))

	// Step 6: Degrees agree with the reference on every active major.
	t.Log("Step 6: Verifying global degrees...")
	for rank, res := range results {
		degrees := gather.ResolveActiveDegrees(dirs[rank], res.Degrees, active)
		for i, v := range active {
			assert.Equal(t, uint64(len(adj[v])), degrees[i],
				"rank %d degree of %d", rank, v)
		}
	}

	// Step 7: A sampled round hits only real neighbors.
	t.Log("Step 7: Running a sampled round...")
	const slots = 2
	choose := func(merged []uint64, globalDegree []uint64) []uint64 {
		picks := make([]uint64, 0, slots*len(merged))
		for i := range merged {
			// One in-range pick when possible, one deliberate miss.
			first := uint64(0)
			if globalDegree[i] > 0 {
				first = globalDegree[i] - 1
			}
			picks = append(picks, first, globalDegree[i])
		}
		return picks
	}

	sampled := runRounds(t, dirs, peers, pool, func(e *gather.Engine, rank int) (*gather.RoundResult, error) {
		return e.SampledRound(proposals[rank], slots, choose)
	})

	hitMajors := make(map[uint64]int)
	for rank, res := range sampled {
		for i := range res.Edges.Majors {
			major, minor := res.Edges.Majors[i], res.Edges.Minors[i]
			assert.Contains(t, adj[major], minor, "rank %d sampled a non-edge", rank)
			hitMajors[major]++
		}
	}
	for _, v := range active {
		wantHits := 0
		if len(adj[v]) > 0 {
			wantHits = 1 // one pick in range, resolved by exactly one worker
		}
		assert.Equal(t, wantHits, hitMajors[v], "hits for major %d", v)
	}
	t.Log("✓ Sampled round resolved every in-range pick exactly once")
}

// runRounds drives one round concurrently on every worker and fails the test
// on any per-rank error.
func runRounds(t *testing.T, dirs []*graph.Directory, peers []*comm.LocalPeer, pool *parallel.Pool,
	run func(e *gather.Engine, rank int) (*gather.RoundResult, error)) []*gather.RoundResult {
	t.Helper()

	results := make([]*gather.RoundResult, len(dirs))
	errs := make([]error, len(dirs))

	var wg sync.WaitGroup
	for rank := range dirs {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			e := gather.NewEngine(dirs[rank], peers[rank], gather.Options{
				Pool:    pool,
				Logger:  logging.NewNopLogger(),
				Metrics: metrics.NewRegistry(),
			})
			results[rank], errs[rank] = run(e, rank)
		}(rank)
	}
	wg.Wait()

	for rank, err := range errs {
		require.NoError(t, err, "rank %d round", rank)
	}
	return results
}

// buildPartition lays a worker's edge cut out as one fragment covering the
// whole major range, with the top half of the range hyper-sparse.
func buildPartition(t *testing.T, cut map[uint64][]uint64) *graph.EdgePartition {
	t.Helper()

	const hyperFirst = e2eVertices / 2
	p := &graph.EdgePartition{
		MajorFirst: 0,
		MajorLast:  e2eVertices,
		HyperFirst: hyperFirst,
	}
	offsets := []uint64{0}
	for v := uint64(0); v < hyperFirst; v++ {
		p.Indices = append(p.Indices, cut[v]...)
		offsets = append(offsets, uint64(len(p.Indices)))
	}
	hypers := []uint64{}
	for v := range cut {
		if v >= hyperFirst {
			hypers = append(hypers, v)
		}
	}
	sort.Slice(hypers, func(i, j int) bool { return hypers[i] < hypers[j] })
	for _, v := range hypers {
		p.HyperMajors = append(p.HyperMajors, v)
		p.Indices = append(p.Indices, cut[v]...)
		offsets = append(offsets, uint64(len(p.Indices)))
	}
	p.Offsets = offsets

	require.NoError(t, p.Validate(), "partition layout")
	return p
}

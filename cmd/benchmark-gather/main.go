package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/dd0wney/cluso-gather/pkg/comm"
	"github.com/dd0wney/cluso-gather/pkg/gather"
	"github.com/dd0wney/cluso-gather/pkg/graph"
	"github.com/dd0wney/cluso-gather/pkg/logging"
	"github.com/dd0wney/cluso-gather/pkg/metrics"
	"github.com/dd0wney/cluso-gather/pkg/parallel"
)

func main() {
	vertices := flag.Uint64("vertices", 100000, "Number of vertices in the graph")
	avgDegree := flag.Int("degree", 16, "Average out-degree per vertex")
	workers := flag.Int("workers", 4, "Workers co-owning the major range")
	rounds := flag.Int("rounds", 20, "Gather rounds to run")
	activeFrac := flag.Int("active", 25, "Percent of majors active per round")
	slots := flag.Int("slots", 8, "Slots per major for the sampled benchmark")
	poolSize := flag.Int("pool", 0, "Goroutines per bulk pass (0 = NumCPU)")
	seed := flag.Int64("seed", 1, "RNG seed")
	flag.Parse()

	fmt.Printf("🔥 Cluso Gather Benchmark\n")
	fmt.Printf("=========================\n\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Vertices: %d\n", *vertices)
	fmt.Printf("  Avg degree: %d\n", *avgDegree)
	fmt.Printf("  Workers: %d\n", *workers)
	fmt.Printf("  Rounds: %d\n", *rounds)
	fmt.Printf("  Active: %d%%\n", *activeFrac)
	fmt.Printf("  Sample slots: %d\n\n", *slots)

	// Build a random graph and cut each edge list across the workers.
	fmt.Printf("📂 Generating graph...\n")
	start := time.Now()
	rng := rand.New(rand.NewSource(*seed))
	cuts := make([]map[uint64][]uint64, *workers)
	for w := range cuts {
		cuts[w] = make(map[uint64][]uint64)
	}
	totalEdges := 0
	for v := uint64(0); v < *vertices; v++ {
		deg := rng.Intn(2 * *avgDegree)
		for i := 0; i < deg; i++ {
			w := i % *workers
			cuts[w][v] = append(cuts[w][v], uint64(rng.Int63n(int64(*vertices))))
			totalEdges++
		}
	}
	fmt.Printf("  ✅ %d edges in %v\n\n", totalEdges, time.Since(start))

	fmt.Printf("🗂️  Building fragments...\n")
	start = time.Now()
	dirs := make([]*graph.Directory, *workers)
	for w := 0; w < *workers; w++ {
		p, err := buildFragment(*vertices, cuts[w])
		if err != nil {
			log.Fatalf("Failed to build fragment %d: %v", w, err)
		}
		dirs[w], err = graph.NewDirectory([]*graph.EdgePartition{p}, *vertices)
		if err != nil {
			log.Fatalf("Failed to build directory %d: %v", w, err)
		}
	}
	fmt.Printf("  ✅ %d fragments in %v\n\n", *workers, time.Since(start))

	peers := comm.NewLocalGroup(*workers)
	pool, err := parallel.NewPool(*poolSize)
	if err != nil {
		log.Fatalf("Failed to create pool: %v", err)
	}
	defer pool.Close()

	engines := make([]*gather.Engine, *workers)
	for w := 0; w < *workers; w++ {
		engines[w] = gather.NewEngine(dirs[w], peers[w], gather.Options{
			Pool:    pool,
			Logger:  logging.NewNopLogger(),
			Metrics: metrics.NewRegistry(),
		})
	}

	// Pre-generate per-round active sets, shared by all workers.
	actives := make([][]uint64, *rounds)
	for r := range actives {
		for v := uint64(0); v < *vertices; v++ {
			if rng.Intn(100) < *activeFrac {
				actives[r] = append(actives[r], v)
			}
		}
	}

	// Benchmark 1: full one-hop rounds.
	fmt.Printf("⚡ Benchmark 1: One-Hop Rounds\n")
	start = time.Now()
	var gathered uint64
	for r := 0; r < *rounds; r++ {
		edges, err := runRound(engines, func(e *gather.Engine, rank int) (*gather.RoundResult, error) {
			return e.Round(shard(actives[r], rank, *workers))
		})
		if err != nil {
			log.Fatalf("Round %d failed: %v", r, err)
		}
		gathered += edges
	}
	duration := time.Since(start)
	fmt.Printf("  ✅ %d rounds, %d edges in %v\n", *rounds, gathered, duration)
	fmt.Printf("  ⚡ Average: %v per round\n", duration/time.Duration(*rounds))
	fmt.Printf("  🚀 Throughput: %.0f edges/sec\n\n", float64(gathered)/duration.Seconds())

	// Benchmark 2: sampled rounds.
	fmt.Printf("🎯 Benchmark 2: Sampled Rounds (%d slots/major)\n", *slots)
	// One RNG per rank; the engines run concurrently.
	chooseFor := func(rank int) gather.ChooseFunc {
		rng := rand.New(rand.NewSource(*seed + int64(rank)))
		return func(active []uint64, globalDegree []uint64) []uint64 {
			picks := make([]uint64, 0, *slots*len(active))
			for i := range active {
				for s := 0; s < *slots; s++ {
					if globalDegree[i] == 0 {
						picks = append(picks, 0)
						continue
					}
					picks = append(picks, uint64(rng.Int63n(int64(globalDegree[i]))))
				}
			}
			return picks
		}
	}
	choosers := make([]gather.ChooseFunc, *workers)
	for w := range choosers {
		choosers[w] = chooseFor(w)
	}

	start = time.Now()
	var sampled uint64
	for r := 0; r < *rounds; r++ {
		edges, err := runRound(engines, func(e *gather.Engine, rank int) (*gather.RoundResult, error) {
			return e.SampledRound(shard(actives[r], rank, *workers), *slots, choosers[rank])
		})
		if err != nil {
			log.Fatalf("Sampled round %d failed: %v", r, err)
		}
		sampled += edges
	}
	duration = time.Since(start)
	fmt.Printf("  ✅ %d rounds, %d hits in %v\n", *rounds, sampled, duration)
	fmt.Printf("  ⚡ Average: %v per round\n", duration/time.Duration(*rounds))
	fmt.Printf("  🚀 Throughput: %.0f hits/sec\n", float64(sampled)/duration.Seconds())
}

// runRound drives one round on every worker concurrently and returns the
// total edges gathered across the group.
func runRound(engines []*gather.Engine, run func(e *gather.Engine, rank int) (*gather.RoundResult, error)) (uint64, error) {
	results := make([]*gather.RoundResult, len(engines))
	errs := make([]error, len(engines))

	var wg sync.WaitGroup
	for rank := range engines {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			results[rank], errs[rank] = run(engines[rank], rank)
		}(rank)
	}
	wg.Wait()

	var total uint64
	for rank := range engines {
		if errs[rank] != nil {
			return 0, errs[rank]
		}
		total += uint64(results[rank].Edges.Len())
	}
	return total, nil
}

// shard hands each worker a disjoint slice of the round's active set; the
// engine's merge restores the union on every rank.
func shard(active []uint64, rank, workers int) []uint64 {
	var out []uint64
	for i := rank; i < len(active); i += workers {
		out = append(out, active[i])
	}
	return out
}

// buildFragment lays one worker's edge cut out as a single fragment covering
// the whole major range, hyper-sparse in the upper half.
func buildFragment(vertices uint64, cut map[uint64][]uint64) (*graph.EdgePartition, error) {
	hyperFirst := vertices / 2
	p := &graph.EdgePartition{
		MajorFirst: 0,
		MajorLast:  vertices,
		HyperFirst: hyperFirst,
	}
	offsets := make([]uint64, 1, hyperFirst+1)
	for v := uint64(0); v < hyperFirst; v++ {
		p.Indices = append(p.Indices, cut[v]...)
		offsets = append(offsets, uint64(len(p.Indices)))
	}
	for v := hyperFirst; v < vertices; v++ {
		if len(cut[v]) == 0 {
			continue
		}
		p.HyperMajors = append(p.HyperMajors, v)
		p.Indices = append(p.Indices, cut[v]...)
		offsets = append(offsets, uint64(len(p.Indices)))
	}
	p.Offsets = offsets

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

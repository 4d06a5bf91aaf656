package gather

import (
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-gather/pkg/comm"
	"github.com/dd0wney/cluso-gather/pkg/graph"
	"github.com/dd0wney/cluso-gather/pkg/logging"
	"github.com/dd0wney/cluso-gather/pkg/metrics"
	"github.com/dd0wney/cluso-gather/pkg/parallel"
)

// Engine drives complete gather rounds for one worker: merge the active set,
// reduce degrees across the group, gather, compact. Each round is
// independent; nothing survives a round except the immutable fragments
// behind the Directory.
type Engine struct {
	dir  *graph.Directory
	ex   comm.Exchanger
	pool *parallel.Pool
	log  logging.Logger
	met  *metrics.Registry
}

// Options configures an Engine. Zero values fall back to a nop logger, the
// default metrics registry and serial execution.
type Options struct {
	Pool    *parallel.Pool
	Logger  logging.Logger
	Metrics *metrics.Registry
}

// RoundResult is the output of one synchronous round.
type RoundResult struct {
	RoundID string
	Active  []uint64 // merged sorted active majors, group-wide
	Degrees *graph.GlobalDegreeTable
	Edges   *EdgeList
}

// ChooseFunc picks, for each merged active major, slotsPerMajor neighbor
// indices relative to the major's global degree. Called once per sampled
// round after degrees are known.
type ChooseFunc func(active []uint64, globalDegree []uint64) []uint64

// NewEngine creates a round driver over the worker's directory and its
// group exchanger.
func NewEngine(dir *graph.Directory, ex comm.Exchanger, opts Options) *Engine {
	e := &Engine{
		dir:  dir,
		ex:   ex,
		pool: opts.Pool,
		log:  opts.Logger,
		met:  opts.Metrics,
	}
	if e.log == nil {
		e.log = logging.NewNopLogger()
	}
	if e.met == nil {
		e.met = metrics.DefaultRegistry()
	}
	e.met.SetTopology(dir.Fragments(), dir.OwnedCount(), ex.Size())
	return e
}

// Round runs a full one-hop gather: every active major's complete local
// neighbor list.
func (e *Engine) Round(localActive []uint64) (*RoundResult, error) {
	start := time.Now()
	id := uuid.New().String()
	log := e.log.With(logging.Round(id), logging.Rank(e.ex.Rank()))

	merged, table, err := e.prepare(log, localActive)
	if err != nil {
		e.met.RecordRound("one_hop", "error", time.Since(start), 0)
		return nil, err
	}

	edges, err := GatherOneHop(e.dir, merged, e.pool)
	if err != nil {
		e.met.RecordRound("one_hop", "error", time.Since(start), len(merged))
		log.Error("one-hop gather failed", logging.Error(err))
		return nil, err
	}

	e.met.RecordGather(edges.Len())
	e.met.RecordRound("one_hop", "ok", time.Since(start), len(merged))
	log.Info("round complete",
		logging.Int("active", len(merged)),
		logging.Int("edges", edges.Len()),
		logging.Duration("took", time.Since(start)))

	return &RoundResult{RoundID: id, Active: merged, Degrees: table, Edges: edges}, nil
}

// SampledRound runs a sampled gather: choose picks per-major neighbor
// indices once merged actives and global degrees are known; misses are
// compacted away before returning.
func (e *Engine) SampledRound(localActive []uint64, slotsPerMajor int, choose ChooseFunc) (*RoundResult, error) {
	start := time.Now()
	id := uuid.New().String()
	log := e.log.With(logging.Round(id), logging.Rank(e.ex.Rank()))

	merged, table, err := e.prepare(log, localActive)
	if err != nil {
		e.met.RecordRound("sampled", "error", time.Since(start), 0)
		return nil, err
	}

	degrees := ResolveActiveDegrees(e.dir, table, merged)
	chosen := choose(merged, degrees)

	raw, err := GatherSampled(e.dir, merged, chosen, slotsPerMajor, table, e.pool)
	if err != nil {
		e.met.RecordRound("sampled", "error", time.Since(start), len(merged))
		log.Error("sampled gather failed", logging.Error(err))
		return nil, err
	}

	edges := CompactEdges(raw, e.dir.Sentinel())
	misses := raw.Len() - edges.Len()
	e.met.RecordSampled(raw.Len(), misses)
	e.met.RecordCompaction(misses)
	e.met.RecordRound("sampled", "ok", time.Since(start), len(merged))
	log.Info("sampled round complete",
		logging.Int("active", len(merged)),
		logging.Int("hits", edges.Len()),
		logging.Int("misses", misses),
		logging.Duration("took", time.Since(start)))

	return &RoundResult{RoundID: id, Active: merged, Degrees: table, Edges: edges}, nil
}

// prepare runs the collective prologue shared by both round kinds.
func (e *Engine) prepare(log logging.Logger, localActive []uint64) ([]uint64, *graph.GlobalDegreeTable, error) {
	merged, err := MergeActiveMajors(e.ex, localActive, e.dir)
	if err != nil {
		log.Error("active-set merge failed", logging.Error(err))
		return nil, nil, err
	}
	e.met.RecordCollective("all_gather", len(merged))

	ringStart := time.Now()
	table, err := ComputeGlobalDegreeInfo(e.dir, e.ex, e.pool)
	if err != nil {
		log.Error("degree reduction failed", logging.Error(err))
		return nil, nil, err
	}
	e.met.RecordCollective("ring", len(table.Total))
	e.met.RingDuration.Observe(time.Since(ringStart).Seconds())

	log.Debug("round prepared",
		logging.Int("active", len(merged)),
		logging.Uint64("owned_majors", e.dir.OwnedCount()))
	return merged, table, nil
}

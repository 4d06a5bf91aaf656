package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRoundMetrics() {
	r.RoundsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gather_rounds_total",
			Help: "Total number of gather rounds executed",
		},
		[]string{"mode", "status"},
	)

	r.RoundDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gather_round_duration_seconds",
			Help:    "Duration of one complete gather round in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
	)

	r.ActiveMajorsPerRound = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gather_active_majors_per_round",
			Help:    "Size of the merged active-major list per round",
			Buckets: []float64{10, 100, 1000, 10000, 100000, 1000000},
		},
	)

	r.GatheredEdgesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "gather_edges_total",
			Help: "Total edges emitted by one-hop gathers",
		},
	)

	r.SampledSlotsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "gather_sampled_slots_total",
			Help: "Total slots resolved by sampled gathers, hits and misses",
		},
	)

	r.SampledMissesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "gather_sampled_misses_total",
			Help: "Sampled slots whose neighbor lives in a fragment this worker does not own",
		},
	)

	r.CompactedTuplesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "gather_compacted_tuples_total",
			Help: "Sentinel tuples removed by compaction",
		},
	)

	r.DedupInputTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "gather_dedup_input_total",
			Help: "Tuples fed into deduplication",
		},
	)
}

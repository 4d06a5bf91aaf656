package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initCollectiveMetrics() {
	r.CollectiveOpsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gather_collective_ops_total",
			Help: "Collective operations executed, by kind",
		},
		[]string{"op"},
	)

	r.CollectiveElementsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gather_collective_elements_total",
			Help: "Array elements moved through collectives, by kind",
		},
		[]string{"op"},
	)

	r.RingDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gather_ring_duration_seconds",
			Help:    "Duration of the rank-ordered degree reduction in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0, 10.0},
		},
	)
}

func (r *Registry) initTopologyMetrics() {
	r.FragmentsOwned = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "gather_fragments_owned",
			Help: "Local adjacency fragments owned by this worker",
		},
	)

	r.MajorsOwned = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "gather_majors_owned",
			Help: "Majors covered by this worker's fragments",
		},
	)

	r.GroupSize = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "gather_group_size",
			Help: "Workers in this worker's collective group",
		},
	)
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the gather engine
type Registry struct {
	// Round metrics
	RoundsTotal          *prometheus.CounterVec
	RoundDuration        prometheus.Histogram
	ActiveMajorsPerRound prometheus.Histogram
	GatheredEdgesTotal   prometheus.Counter
	SampledSlotsTotal    prometheus.Counter
	SampledMissesTotal   prometheus.Counter
	CompactedTuplesTotal prometheus.Counter
	DedupInputTotal      prometheus.Counter

	// Collective metrics
	CollectiveOpsTotal      *prometheus.CounterVec
	CollectiveElementsTotal *prometheus.CounterVec
	RingDuration            prometheus.Histogram

	// Topology metrics
	FragmentsOwned prometheus.Gauge
	MajorsOwned    prometheus.Gauge
	GroupSize      prometheus.Gauge

	registry *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initRoundMetrics()
	r.initCollectiveMetrics()
	r.initTopologyMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

package metrics

import "time"

// RecordRound records one completed gather round.
func (r *Registry) RecordRound(mode, status string, duration time.Duration, activeMajors int) {
	r.RoundsTotal.WithLabelValues(mode, status).Inc()
	r.RoundDuration.Observe(duration.Seconds())
	r.ActiveMajorsPerRound.Observe(float64(activeMajors))
}

// RecordGather records the output of a one-hop gather pass.
func (r *Registry) RecordGather(edges int) {
	r.GatheredEdgesTotal.Add(float64(edges))
}

// RecordSampled records a sampled gather pass.
func (r *Registry) RecordSampled(slots, misses int) {
	r.SampledSlotsTotal.Add(float64(slots))
	r.SampledMissesTotal.Add(float64(misses))
}

// RecordCompaction records tuples dropped by sentinel removal.
func (r *Registry) RecordCompaction(removed int) {
	r.CompactedTuplesTotal.Add(float64(removed))
}

// RecordCollective records one collective operation moving n elements.
func (r *Registry) RecordCollective(op string, n int) {
	r.CollectiveOpsTotal.WithLabelValues(op).Inc()
	r.CollectiveElementsTotal.WithLabelValues(op).Add(float64(n))
}

// SetTopology records the worker's static shape for this graph.
func (r *Registry) SetTopology(fragments int, majors uint64, groupSize int) {
	r.FragmentsOwned.Set(float64(fragments))
	r.MajorsOwned.Set(float64(majors))
	r.GroupSize.Set(float64(groupSize))
}

package gather

// EdgeList is a gather output: parallel arrays of (major, minor[, weight])
// tuples. Invalid slots hold the sentinel vertex id as minor until removed
// by CompactEdges.
type EdgeList struct {
	Majors  []uint64
	Minors  []uint64
	Weights []float64 // nil when the source graph is unweighted
}

// Len returns the number of tuples.
func (e *EdgeList) Len() int {
	return len(e.Majors)
}

// Weighted reports whether the list carries per-edge weights.
func (e *EdgeList) Weighted() bool {
	return e.Weights != nil
}

func newEdgeList(n int, weighted bool) *EdgeList {
	e := &EdgeList{
		Majors: make([]uint64, n),
		Minors: make([]uint64, n),
	}
	if weighted {
		e.Weights = make([]float64, n)
	}
	return e
}

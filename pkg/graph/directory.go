package graph

import (
	"fmt"
	"sort"
)

// Directory is the round-scoped index over a worker's local fragments.
// It carries four aligned arrays (range first, range last, hyper-sparse
// first, cumulative vertex-count offset) so every component addresses
// fragments and the worker-wide degree table the same way.
type Directory struct {
	parts   []*EdgePartition
	firsts  []uint64
	lasts   []uint64
	hypers  []uint64
	offsets []uint64 // cumulative range sizes, len = fragments + 1

	totalVertices uint64
	weighted      bool
}

// NewDirectory validates the fragments and builds the directory.
// Fragments must be sorted by major range and must not overlap; violations
// are setup errors and abort the round before any collective runs.
func NewDirectory(parts []*EdgePartition, totalVertices uint64) (*Directory, error) {
	if len(parts) == 0 {
		return nil, ErrNoFragments
	}

	d := &Directory{
		parts:         parts,
		firsts:        make([]uint64, len(parts)),
		lasts:         make([]uint64, len(parts)),
		hypers:        make([]uint64, len(parts)),
		offsets:       make([]uint64, len(parts)+1),
		totalVertices: totalVertices,
		weighted:      parts[0].Weighted(),
	}

	for i, p := range parts {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("fragment %d: %w", i, err)
		}
		if p.Weighted() != d.weighted {
			return nil, fmt.Errorf("fragment %d: %w", i, ErrMixedWeights)
		}
		if i > 0 && p.MajorFirst < parts[i-1].MajorLast {
			return nil, fmt.Errorf("fragments %d and %d: %w", i-1, i, ErrFragmentOverlap)
		}
		if p.MajorLast > totalVertices {
			return nil, fmt.Errorf("fragment %d: %w: range end %d beyond %d vertices",
				i, ErrMalformedFragment, p.MajorLast, totalVertices)
		}
		d.firsts[i] = p.MajorFirst
		d.lasts[i] = p.MajorLast
		d.hypers[i] = p.HyperFirst
		d.offsets[i+1] = d.offsets[i] + p.RangeSize()
	}
	return d, nil
}

// Fragments returns the number of local fragments.
func (d *Directory) Fragments() int {
	return len(d.parts)
}

// Fragment returns the i-th local fragment.
func (d *Directory) Fragment(i int) *EdgePartition {
	return d.parts[i]
}

// Locate resolves a vertex id to the local fragment owning it as major.
// Returns false when no local fragment owns the id.
func (d *Directory) Locate(v uint64) (int, bool) {
	i := sort.Search(len(d.lasts), func(i int) bool { return d.lasts[i] > v })
	if i == len(d.lasts) || v < d.firsts[i] {
		return 0, false
	}
	return i, true
}

// DegreeIndex maps a major owned by fragment frag into the worker-wide
// degree table.
func (d *Directory) DegreeIndex(frag int, v uint64) uint64 {
	return d.offsets[frag] + (v - d.firsts[frag])
}

// OwnedCount returns the total number of majors across all local fragments.
func (d *Directory) OwnedCount() uint64 {
	return d.offsets[len(d.offsets)-1]
}

// TotalVertices returns the vertex count of the whole graph.
func (d *Directory) TotalVertices() uint64 {
	return d.totalVertices
}

// Sentinel returns the reserved vertex id marking an invalid gather slot.
// It equals the total vertex count and therefore never names a real vertex.
func (d *Directory) Sentinel() uint64 {
	return d.totalVertices
}

// Weighted reports whether the local fragments carry edge weights.
func (d *Directory) Weighted() bool {
	return d.weighted
}

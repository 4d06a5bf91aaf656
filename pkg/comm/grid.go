package comm

import "fmt"

// Grid describes the fixed 2D logical layout of workers. A row group jointly
// owns one slice of one edge endpoint axis, a column group the other; which
// axis is "major" depends on the storage orientation chosen upstream.
type Grid struct {
	Rows int
	Cols int
}

// Validate checks that the grid shape matches the worker count.
func (g Grid) Validate(workers int) error {
	if g.Rows < 1 || g.Cols < 1 {
		return fmt.Errorf("%w: %dx%d", ErrGridMismatch, g.Rows, g.Cols)
	}
	if g.Rows*g.Cols != workers {
		return fmt.Errorf("%w: %dx%d grid for %d workers", ErrGridMismatch, g.Rows, g.Cols, workers)
	}
	return nil
}

// Size returns the total worker count of the grid.
func (g Grid) Size() int {
	return g.Rows * g.Cols
}

// RowOf returns the row index of a rank (ranks are laid out row-major).
func (g Grid) RowOf(rank int) int {
	return rank / g.Cols
}

// ColOf returns the column index of a rank.
func (g Grid) ColOf(rank int) int {
	return rank % g.Cols
}

// RowPeers returns the ranks sharing a row with rank, in rank order.
func (g Grid) RowPeers(rank int) []int {
	row := g.RowOf(rank)
	peers := make([]int, g.Cols)
	for c := 0; c < g.Cols; c++ {
		peers[c] = row*g.Cols + c
	}
	return peers
}

// ColPeers returns the ranks sharing a column with rank, in rank order.
func (g Grid) ColPeers(rank int) []int {
	col := g.ColOf(rank)
	peers := make([]int, g.Rows)
	for r := 0; r < g.Rows; r++ {
		peers[r] = r*g.Cols + col
	}
	return peers
}

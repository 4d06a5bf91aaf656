package comm

import (
	"reflect"
	"sync"
	"testing"
)

func TestSolo(t *testing.T) {
	var ex Exchanger = Solo{}
	if ex.Rank() != 0 || ex.Size() != 1 {
		t.Fatalf("Solo rank/size = %d/%d", ex.Rank(), ex.Size())
	}

	local := []uint64{3, 1, 2}
	gathered, err := ex.AllGatherVar(local)
	if err != nil {
		t.Fatalf("AllGatherVar: %v", err)
	}
	if !reflect.DeepEqual(gathered, local) {
		t.Errorf("AllGatherVar = %v, want %v", gathered, local)
	}

	exclusive, total, err := ex.RingAccumulate(local)
	if err != nil {
		t.Fatalf("RingAccumulate: %v", err)
	}
	if !reflect.DeepEqual(exclusive, []uint64{0, 0, 0}) {
		t.Errorf("exclusive = %v, want zeros", exclusive)
	}
	if !reflect.DeepEqual(total, local) {
		t.Errorf("total = %v, want %v", total, local)
	}
}

func TestGrid(t *testing.T) {
	g := Grid{Rows: 2, Cols: 3}

	if err := g.Validate(6); err != nil {
		t.Fatalf("Validate(6): %v", err)
	}
	if err := g.Validate(5); err == nil {
		t.Error("Validate(5) succeeded for 2x3 grid")
	}

	tests := []struct {
		rank     int
		row, col int
		rowPeers []int
		colPeers []int
	}{
		{0, 0, 0, []int{0, 1, 2}, []int{0, 3}},
		{4, 1, 1, []int{3, 4, 5}, []int{1, 4}},
		{5, 1, 2, []int{3, 4, 5}, []int{2, 5}},
	}
	for _, tt := range tests {
		if got := g.RowOf(tt.rank); got != tt.row {
			t.Errorf("RowOf(%d) = %d, want %d", tt.rank, got, tt.row)
		}
		if got := g.ColOf(tt.rank); got != tt.col {
			t.Errorf("ColOf(%d) = %d, want %d", tt.rank, got, tt.col)
		}
		if got := g.RowPeers(tt.rank); !reflect.DeepEqual(got, tt.rowPeers) {
			t.Errorf("RowPeers(%d) = %v, want %v", tt.rank, got, tt.rowPeers)
		}
		if got := g.ColPeers(tt.rank); !reflect.DeepEqual(got, tt.colPeers) {
			t.Errorf("ColPeers(%d) = %v, want %v", tt.rank, got, tt.colPeers)
		}
	}
}

// runGroup executes fn concurrently on every peer and waits.
func runGroup(t *testing.T, peers []*LocalPeer, fn func(p *LocalPeer)) {
	t.Helper()
	var wg sync.WaitGroup
	for _, p := range peers {
		wg.Add(1)
		go func(p *LocalPeer) {
			defer wg.Done()
			fn(p)
		}(p)
	}
	wg.Wait()
}

func TestLocalGroup_AllGatherVar(t *testing.T) {
	peers := NewLocalGroup(3)
	inputs := [][]uint64{{10, 11}, {}, {30}}
	want := []uint64{10, 11, 30}

	results := make([][]uint64, 3)
	errs := make([]error, 3)
	runGroup(t, peers, func(p *LocalPeer) {
		results[p.Rank()], errs[p.Rank()] = p.AllGatherVar(inputs[p.Rank()])
	})

	for r := 0; r < 3; r++ {
		if errs[r] != nil {
			t.Fatalf("rank %d: %v", r, errs[r])
		}
		if !reflect.DeepEqual(results[r], want) {
			t.Errorf("rank %d gathered %v, want %v", r, results[r], want)
		}
	}
}

func TestLocalGroup_RingAccumulate(t *testing.T) {
	peers := NewLocalGroup(3)
	inputs := [][]uint64{{1, 0, 2}, {0, 3, 1}, {5, 0, 0}}
	wantTotal := []uint64{6, 3, 3}
	wantExclusive := [][]uint64{{0, 0, 0}, {1, 0, 2}, {1, 3, 3}}

	exclusives := make([][]uint64, 3)
	totals := make([][]uint64, 3)
	errs := make([]error, 3)
	runGroup(t, peers, func(p *LocalPeer) {
		exclusives[p.Rank()], totals[p.Rank()], errs[p.Rank()] = p.RingAccumulate(inputs[p.Rank()])
	})

	for r := 0; r < 3; r++ {
		if errs[r] != nil {
			t.Fatalf("rank %d: %v", r, errs[r])
		}
		if !reflect.DeepEqual(totals[r], wantTotal) {
			t.Errorf("rank %d total = %v, want %v", r, totals[r], wantTotal)
		}
		if !reflect.DeepEqual(exclusives[r], wantExclusive[r]) {
			t.Errorf("rank %d exclusive = %v, want %v", r, exclusives[r], wantExclusive[r])
		}
	}
}

func TestLocalGroup_RepeatedCollectives(t *testing.T) {
	peers := NewLocalGroup(2)
	runGroup(t, peers, func(p *LocalPeer) {
		for round := 0; round < 10; round++ {
			local := []uint64{uint64(p.Rank() + round)}
			gathered, err := p.AllGatherVar(local)
			if err != nil {
				t.Errorf("round %d rank %d: %v", round, p.Rank(), err)
				return
			}
			want := []uint64{uint64(round), uint64(round + 1)}
			if !reflect.DeepEqual(gathered, want) {
				t.Errorf("round %d rank %d: gathered %v, want %v", round, p.Rank(), gathered, want)
			}

			_, total, err := p.RingAccumulate(local)
			if err != nil {
				t.Errorf("round %d rank %d: %v", round, p.Rank(), err)
				return
			}
			if total[0] != uint64(2*round+1) {
				t.Errorf("round %d rank %d: total = %d, want %d", round, p.Rank(), total[0], 2*round+1)
			}
		}
	})
}

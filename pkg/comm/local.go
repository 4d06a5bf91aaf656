package comm

import (
	"fmt"
	"sync"
)

// localGroup is the shared state behind one in-process group of workers.
// Each member runs on its own goroutine; the ring channels carry the running
// sum between adjacent ranks, and the slot array plus barrier implement the
// all-gather.
type localGroup struct {
	n       int
	slots   [][]uint64
	barrier *barrier
	ring    []chan []uint64 // ring[i] delivers the running sum into rank i
	bcast   []chan []uint64 // bcast[i] delivers the inclusive total to rank i
}

// LocalPeer is one member of an in-process group. It is safe for use by a
// single goroutine; distinct peers may run concurrently.
type LocalPeer struct {
	g    *localGroup
	rank int
}

// NewLocalGroup creates an in-process group of n members communicating over
// channels. Every returned peer must participate in every collective or the
// group deadlocks, matching the semantics of a real worker group.
func NewLocalGroup(n int) []*LocalPeer {
	if n < 1 {
		n = 1
	}
	g := &localGroup{
		n:       n,
		slots:   make([][]uint64, n),
		barrier: newBarrier(n),
		ring:    make([]chan []uint64, n),
		bcast:   make([]chan []uint64, n),
	}
	for i := 0; i < n; i++ {
		g.ring[i] = make(chan []uint64, 1)
		g.bcast[i] = make(chan []uint64, 1)
	}
	peers := make([]*LocalPeer, n)
	for i := 0; i < n; i++ {
		peers[i] = &LocalPeer{g: g, rank: i}
	}
	return peers
}

// Rank returns the peer's rank within the group.
func (p *LocalPeer) Rank() int { return p.rank }

// Size returns the group size.
func (p *LocalPeer) Size() int { return p.g.n }

// AllGatherVar posts the local array into the peer's slot, waits for the
// whole group, and concatenates the slots in rank order.
func (p *LocalPeer) AllGatherVar(local []uint64) ([]uint64, error) {
	g := p.g
	g.slots[p.rank] = local
	g.barrier.wait()

	total := 0
	for _, s := range g.slots {
		total += len(s)
	}
	out := make([]uint64, 0, total)
	for _, s := range g.slots {
		out = append(out, s...)
	}

	// Second barrier so no peer reuses its slot while others still read it.
	g.barrier.wait()
	return out, nil
}

// RingAccumulate runs the blocking rank-ordered chain over the group. The
// blocking receive on the ring channel is the synchronization point between
// hops: rank i+1 cannot proceed until rank i has sent.
func (p *LocalPeer) RingAccumulate(local []uint64) ([]uint64, []uint64, error) {
	g := p.g
	if g.n == 1 {
		return Solo{}.RingAccumulate(local)
	}

	var exclusive []uint64
	if p.rank == 0 {
		exclusive = make([]uint64, len(local))
	} else {
		exclusive = <-g.ring[p.rank]
		if len(exclusive) != len(local) {
			return nil, nil, fmt.Errorf("%w: got %d, local %d", ErrLengthMismatch, len(exclusive), len(local))
		}
	}

	running := make([]uint64, len(local))
	for i := range local {
		running[i] = exclusive[i] + local[i]
	}

	if p.rank < g.n-1 {
		g.ring[p.rank+1] <- running
		return exclusive, <-g.bcast[p.rank], nil
	}

	// Last rank holds the inclusive total; broadcast it back.
	for i := 0; i < g.n-1; i++ {
		g.bcast[i] <- running
	}
	return exclusive, running, nil
}

// barrier is a reusable generation-counted barrier.
type barrier struct {
	mu    sync.Mutex
	cond  *sync.Cond
	n     int
	count int
	gen   uint64
}

func newBarrier(n int) *barrier {
	b := &barrier{n: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *barrier) wait() {
	b.mu.Lock()
	gen := b.gen
	b.count++
	if b.count == b.n {
		b.count = 0
		b.gen++
		b.cond.Broadcast()
	} else {
		for gen == b.gen {
			b.cond.Wait()
		}
	}
	b.mu.Unlock()
}

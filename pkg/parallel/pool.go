// Package parallel runs the engine's bulk element-wise passes. Every pass
// writes to output slots addressed up front by an exclusive prefix sum, so
// the workers never contend and need no locking during the write phase.
package parallel

import (
	"fmt"
	"math"
	"runtime"
	"sync"
)

// ErrTooManyWorkers is returned when the worker count exceeds the maximum allowed.
var ErrTooManyWorkers = fmt.Errorf("worker count exceeds maximum")

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// Pool manages the goroutines that execute chunked passes.
type Pool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // protects taskQueue from concurrent close during send
	closed    bool
}

// NewPool creates a pool with the given number of workers; zero or negative
// means one worker per CPU.
func NewPool(workers int) (*Pool, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	p := &Pool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p, nil
}

// Workers returns the pool's worker count.
func (p *Pool) Workers() int {
	return p.workers
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.taskQueue {
		task()
	}
}

// Submit adds a task to the pool. Returns false if the pool is closed.
func (p *Pool) Submit(task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	p.taskQueue <- task
	return true
}

// Close shuts the pool down and waits for in-flight tasks.
func (p *Pool) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.taskQueue)
		p.mu.Unlock()
	})
	p.wg.Wait()
}

// ForChunks splits [0, n) into contiguous chunks and runs fn(lo, hi) for each
// on the pool, blocking until every chunk finishes. fn must only write to
// state owned by its own index range.
func (p *Pool) ForChunks(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	chunk := (n + p.workers - 1) / p.workers
	if chunk < 1 {
		chunk = 1
	}

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		lo, hi := lo, hi
		wg.Add(1)
		if !p.Submit(func() {
			defer wg.Done()
			fn(lo, hi)
		}) {
			// Pool closed: run inline so the pass still completes.
			fn(lo, hi)
			wg.Done()
		}
	}
	wg.Wait()
}

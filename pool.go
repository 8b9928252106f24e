package rlog

import (
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
)

// WorkerPool runs async drain tasks. One pool may serve many loggers; each
// logger holds a reference and the goroutines are released with the last one.
//
// Submitted tasks wait in a FIFO backlog served by at most Workers runners,
// so submit never blocks the caller. Drain tasks yield after a bounded batch
// and requeue at the back, which rotates the workers between loggers.
type WorkerPool struct {
	pool    *ants.Pool
	workers int
	refs    atomic.Int64

	mu      sync.Mutex
	backlog []func()
	runners int
}

// NewWorkerPool starts a pool of the given size, holding one reference
func NewWorkerPool(workers int) (*WorkerPool, error) {
	if workers <= 0 {
		workers = int(defaultConfig.Workers)
	}
	p, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmtErrorf("failed to create worker pool: %w", err)
	}
	wp := &WorkerPool{pool: p, workers: workers}
	wp.refs.Store(1)
	return wp, nil
}

// Retain adds a reference and returns the pool
func (p *WorkerPool) Retain() *WorkerPool {
	p.refs.Add(1)
	return p
}

// Release drops a reference; the last one stops the workers
func (p *WorkerPool) Release() {
	if p.refs.Add(-1) == 0 {
		p.pool.Release()
	}
}

// Workers returns the pool capacity
func (p *WorkerPool) Workers() int {
	return p.workers
}

// Running returns the number of workers serving the backlog
func (p *WorkerPool) Running() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runners
}

// Pending returns the number of tasks waiting for a worker
func (p *WorkerPool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.backlog)
}

// submit queues task and starts a runner if one is free. It never blocks.
func (p *WorkerPool) submit(task func()) {
	p.mu.Lock()
	p.backlog = append(p.backlog, task)
	start := p.runners < p.workers
	if start {
		p.runners++
	}
	p.mu.Unlock()

	if !start {
		return
	}
	if err := p.pool.Submit(p.runBacklog); err != nil {
		// A finished runner may not have handed its ants worker back yet,
		// or the pool was released; the backlog must still be served.
		go p.runBacklog()
	}
}

// runBacklog serves tasks until the backlog is empty. The runner count is
// only decremented under mu with an empty backlog, so a task queued after
// that point always starts a new runner.
func (p *WorkerPool) runBacklog() {
	for {
		p.mu.Lock()
		if len(p.backlog) == 0 {
			p.runners--
			p.mu.Unlock()
			return
		}
		task := p.backlog[0]
		p.backlog[0] = nil
		p.backlog = p.backlog[1:]
		p.mu.Unlock()

		task()
	}
}

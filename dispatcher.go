package rlog

import (
	"sync"
	"sync/atomic"
	"time"
)

// dispatcher moves records from producers to a deliver function through a
// bounded queue. Drain tasks run on a WorkerPool, never more than one at a
// time per dispatcher, so records are delivered in enqueue order. Producers
// block only on a full queue under the block policy.
type dispatcher struct {
	queue   chan logRecord
	pool    *WorkerPool
	deliver func(logRecord)
	drop    bool
	batch   int // records per drain task before yielding the worker

	scheduled atomic.Bool
	dropped   atomic.Uint64
	drains    sync.WaitGroup
}

func newDispatcher(size int, policy string, pool *WorkerPool, deliver func(logRecord)) *dispatcher {
	return &dispatcher{
		queue:   make(chan logRecord, size),
		pool:    pool,
		deliver: deliver,
		drop:    policy == OverflowDrop,
		batch:   min(size, maxDrainBatch),
	}
}

// enqueue hands rec to the queue. It blocks while the queue is full unless
// the drop policy is active, in which case the record is counted and false
// is returned.
func (d *dispatcher) enqueue(rec logRecord) bool {
	if d.drop {
		select {
		case d.queue <- rec:
		default:
			d.dropped.Add(1)
			return false
		}
	} else {
		d.queue <- rec
	}

	d.schedule()
	return true
}

// schedule starts a drain task unless one is already active
func (d *dispatcher) schedule() {
	if !d.scheduled.CompareAndSwap(false, true) {
		return
	}
	d.drains.Add(1)
	d.pool.submit(d.drain)
}

// drain delivers until the queue is empty or a batch is done. After a full
// batch the task requeues itself with scheduled still set, so other loggers
// sharing the pool get the worker in between. Clearing the flag and
// rechecking the queue closes the window where a producer enqueues after the
// last receive but sees the flag still set.
func (d *dispatcher) drain() {
	defer d.drains.Done()
	for n := 0; ; n++ {
		if n == d.batch {
			d.drains.Add(1)
			d.pool.submit(d.drain)
			return
		}
		select {
		case rec := <-d.queue:
			if rec.flushed != nil {
				close(rec.flushed)
				continue
			}
			d.deliver(rec)
		default:
			d.scheduled.Store(false)
			if len(d.queue) == 0 || !d.scheduled.CompareAndSwap(false, true) {
				return
			}
		}
	}
}

// waitIdle returns once every record enqueued before the call has been
// delivered. A marker is queued behind them and the wait ends when the drain
// reaches it. A positive timeout bounds both the enqueue and the wait.
func (d *dispatcher) waitIdle(timeout time.Duration) error {
	marker := logRecord{flushed: make(chan struct{})}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case d.queue <- marker:
	case <-expired:
		return ErrTimeout
	}
	d.schedule()

	select {
	case <-marker.flushed:
		return nil
	case <-expired:
		return ErrTimeout
	}
}

// stop drains the queue and waits for the drain task to exit. The caller
// guarantees no further enqueue calls.
func (d *dispatcher) stop(timeout time.Duration) error {
	if err := d.waitIdle(timeout); err != nil {
		return err
	}
	d.drains.Wait()
	return nil
}

// depth returns the number of queued records
func (d *dispatcher) depth() int {
	return len(d.queue)
}

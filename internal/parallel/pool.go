// Package parallel schedules field-sampling work across a fixed set of
// worker goroutines.
//
// Iso-surface extraction spends nearly all of its time evaluating the
// distance field over a dense grid. The grid is split into slabs and
// the slabs are distributed over per-worker queues; idle workers steal
// from their neighbors, which keeps the load even when some slabs hit
// deeper parts of the solid tree than others.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a fixed set of worker goroutines with per-worker queues and
// work stealing. A Pool is safe for concurrent use; jobs submitted from
// different callers interleave freely.
type Pool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup

	// mu orders submissions against Close: a job pushed under the read
	// lock is in a queue before done closes, so the workers' final
	// flush is guaranteed to see it.
	mu sync.RWMutex

	// open reports whether the pool still accepts jobs.
	open atomic.Bool

	// next spreads submissions round-robin over the queues.
	next atomic.Uint64
}

// New creates a pool with the given number of workers and starts them.
// A count of zero or less uses GOMAXPROCS.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range p.queues {
		// A few slots of slack per worker keeps submission from
		// stalling while slabs of uneven cost drain.
		p.queues[i] = make(chan func(), 4)
	}
	p.open.Store(true)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work(i)
	}
	return p
}

// work is one worker's loop: drain the own queue, steal when it runs
// dry, block when there is nothing anywhere.
func (p *Pool) work(id int) {
	defer p.wg.Done()
	own := p.queues[id]

	for {
		select {
		case job := <-own:
			job()
		case <-p.done:
			p.flush(own)
			return
		default:
			if job := p.steal(id); job != nil {
				job()
				continue
			}
			select {
			case job := <-own:
				job()
			case <-p.done:
				p.flush(own)
				return
			}
		}
	}
}

// flush runs whatever is still queued so Close never strands a job
// whose submitter is waiting on it.
func (p *Pool) flush(queue chan func()) {
	for {
		select {
		case job := <-queue:
			job()
		default:
			return
		}
	}
}

// steal takes one job from any other worker's queue, or returns nil.
func (p *Pool) steal(id int) func() {
	for i := 0; i < p.workers; i++ {
		if i == id {
			continue
		}
		select {
		case job := <-p.queues[i]:
			return job
		default:
		}
	}
	return nil
}

// submit queues one job, preferring the next queue in round-robin
// order but falling back to any queue with room. It returns false on a
// closed pool; the caller runs the job itself.
func (p *Pool) submit(job func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.open.Load() {
		return false
	}
	start := int(p.next.Add(1)) % p.workers
	for i := 0; i < p.workers; i++ {
		select {
		case p.queues[(start+i)%p.workers] <- job:
			return true
		default:
		}
	}
	// All queues full; block until a worker drains one. The workers
	// cannot exit here, since Close waits for the read lock.
	p.queues[start] <- job
	return true
}

// ForEach runs fn for every index in [0, n), distributed over the
// workers, and waits for completion. It stops handing out new indices
// once ctx is canceled and then returns ctx.Err(); indices already
// running are finished, not interrupted. A closed pool runs everything
// on the calling goroutine.
func (p *Pool) ForEach(ctx context.Context, n int, fn func(i int)) error {
	if n <= 0 {
		return ctx.Err()
	}
	if !p.open.Load() {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(i)
		}
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}
		i := i
		wg.Add(1)
		job := func() {
			defer wg.Done()
			if ctx.Err() == nil {
				fn(i)
			}
		}
		if !p.submit(job) {
			// Pool closed mid-run; finish inline.
			job()
		}
	}
	wg.Wait()
	return ctx.Err()
}

// Workers returns the worker count.
func (p *Pool) Workers() int {
	return p.workers
}

// Close stops the workers after the queued jobs drain. It is safe to
// call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.open.CompareAndSwap(true, false) {
		p.mu.Unlock()
		return
	}
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

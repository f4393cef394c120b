// Package pthreadpool implements a bounded-parallelism worker pool for
// short, independent jobs: a caller submits a function and a payload, the
// pool runs it on a pooled goroutine, and a caller-supplied SignalFunc is
// invoked on that goroutine once the job returns.
//
// The pool is workload-agnostic (a job is an opaque function plus an
// opaque payload), gives no ordering guarantee beyond FIFO dispatch, and
// does not return job results — only side effects and the completion
// signal. It is modeled on Samba's pthreadpool (lib/pthreadpool in the
// Samba source tree): a ring-buffer job queue, a mutex+condition-variable
// rendezvous between submitters and workers, a self-pipe that lets an
// external event loop learn a worker exited, and a three-phase fork
// protocol so a process that forks with a live pool doesn't inherit
// half-evacuated condition variables in the child. See the package-level
// Registry type for the fork protocol.
package pthreadpool

import (
	"fmt"
	"sync"
	"time"
)

// SignalFunc is invoked on the worker goroutine after a job's function
// returns. A zero return keeps the worker alive to pick up further work;
// a non-zero return ends the worker — its side effects from the job that
// just ran are already visible, only this notification is lost for any
// code that expected SignalFunc to fire again. The worker's exit also
// wakes the pool's monitor descriptor so an event loop can call
// RestartCheck.
type SignalFunc func(id int, fn func(payload any), payload any, signalArg any) int

const idleTimeout = time.Second

// Pool is a bounded-parallelism job runner. The zero value is not usable;
// construct one with Init.
type Pool struct {
	mu   sync.Mutex
	cond *sync.Cond

	queue jobQueue

	signalFn    SignalFunc
	signalArg   any
	maxThreads  uint
	numThreads  uint
	numIdle     uint
	stopped     bool
	destroyed   bool
	perThreadCWD bool

	forkMu      sync.Mutex
	preforkCond *sync.Cond

	pipe *selfPipe

	collector *PoolCollector

	handle registryHandle
}

// Init creates a pool allowing up to maxThreads concurrently running
// jobs. maxThreads == 0 puts the pool into synchronous mode: AddJob runs
// the job and signalFn inline on the caller's goroutine and no
// goroutine is ever spawned.
//
// signalFn must not be nil; it is called after every dispatched job,
// including ones run synchronously.
//
// Asynchronous pools (maxThreads != 0) need a self-pipe, which is only
// available on unix-family GOOS values; Init on other platforms fails
// for asynchronous pools the same way the original fails when pipe(2)
// itself fails. Synchronous pools never touch the self-pipe and work
// everywhere.
func Init(maxThreads uint, signalFn SignalFunc, signalArg any) (*Pool, error) {
	p := &Pool{
		queue:      newJobQueue(),
		signalFn:   signalFn,
		signalArg:  signalArg,
		maxThreads: maxThreads,
	}
	p.cond = sync.NewCond(&p.mu)

	if maxThreads != 0 {
		pipe, err := newSelfPipe()
		if err != nil {
			return nil, newErr("Init", KindIO, err)
		}
		p.pipe = pipe
		p.perThreadCWD = perThreadCWDSupported()
	}

	p.handle = defaultRegistry.register(p)

	return p, nil
}

// MaxThreads returns the pool's configured parallelism, or 0 once the
// pool has been stopped (matching pthreadpool_max_threads: a stopped
// pool reports no capacity left to run anything).
func (p *Pool) MaxThreads() uint {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return 0
	}
	return p.maxThreads
}

// QueuedJobs returns the number of jobs submitted but not yet dispatched
// to a worker (or run inline, in synchronous mode — which is always 0).
// A stopped pool reports 0, since its queued jobs will never run.
//
// The original pthreadpool_queued_jobs has a documented bug: if locking
// the pool mutex fails, it returns the errno cast to size_t. That
// failure mode does not exist in Go — sync.Mutex.Lock cannot fail — so
// this accessor always returns a real count.
func (p *Pool) QueuedJobs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return 0
	}
	return p.queue.len()
}

// PerThreadCWD reports whether worker goroutines run with an isolated
// filesystem view, making chdir-like operations on a worker safe to use
// without racing other workers. On Go this capability probe tracks
// whether the process can unshare its filesystem namespace per OS
// thread (Linux only, and only when the sandbox/container allows it);
// everywhere else it is always false.
func (p *Pool) PerThreadCWD() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}
	return p.perThreadCWD
}

// Stop prevents any further job from being dispatched: no new job is
// accepted by AddJob, and any job already queued but not yet picked up
// by a worker never runs. Jobs already running complete normally and
// still invoke signalFn. Calling Stop on an already-stopped pool is a
// no-op, so stop;stop behaves like a single stop.
func (p *Pool) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

func (p *Pool) stopLocked() error {
	if p.stopped {
		return nil
	}
	p.stopped = true
	if p.pipe != nil {
		p.pipe.close()
	}
	if p.numThreads == 0 {
		return nil
	}
	p.cond.Broadcast()
	return nil
}

// Destroy stops the pool (if it is not already stopped) and releases its
// resources once the last worker has exited. Destroy never blocks: if
// workers are still running, the last one to exit frees the pool; if
// none exist, Destroy frees it immediately.
//
// Calling Destroy a second time on the same pool panics, matching the
// original's assert(!pool->destroyed) — a double destroy means the
// caller's own bookkeeping is corrupted, which is not a recoverable
// condition for the pool to paper over.
func (p *Pool) Destroy() error {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		panic("pthreadpool: Destroy called twice on the same pool")
	}
	p.destroyed = true

	if !p.stopped {
		if err := p.stopLocked(); err != nil {
			p.mu.Unlock()
			return err
		}
	}

	freeIt := p.numThreads == 0
	p.mu.Unlock()

	if freeIt {
		defaultRegistry.unregister(p.handle)
	}
	return nil
}

// AddJob submits fn(payload) to run asynchronously, identified by id for
// later cancellation and for the id passed to signalFn. In synchronous
// mode (maxThreads == 0) fn and signalFn both run inline before AddJob
// returns, and AddJob reports signalFn's result: nil when it returned
// zero, otherwise an error carrying the non-zero value.
func (p *Pool) AddJob(id int, fn func(payload any), payload any) error {
	p.mu.Lock()

	if p.stopped {
		p.mu.Unlock()
		return newErr("AddJob", KindInvalid, nil)
	}

	if p.maxThreads == 0 {
		p.mu.Unlock()
		fn(payload)
		if ret := p.signalFn(id, fn, payload, p.signalArg); ret != 0 {
			return fmt.Errorf("pthreadpool: AddJob: signal function returned %d", ret)
		}
		return nil
	}

	if !p.queue.push(job{id: id, fn: fn, payload: payload}) {
		p.mu.Unlock()
		return newErr("AddJob", KindNoMemory, nil)
	}
	if p.collector != nil {
		p.collector.jobsEnqueued.Inc()
		p.collector.queuedJobs.Set(float64(p.queue.len()))
	}

	if p.numIdle > 0 {
		p.cond.Signal()
		p.mu.Unlock()
		return nil
	}

	if p.numThreads >= p.maxThreads {
		// No room to grow; an existing worker will pick this up once
		// it finishes whatever it is running.
		p.mu.Unlock()
		return nil
	}

	if err := p.spawnLocked(); err != nil {
		if p.numThreads != 0 {
			// At least one worker survives to drain the queue.
			p.mu.Unlock()
			return nil
		}
		p.queue.undoPush()
		p.mu.Unlock()
		return newErr("AddJob", KindSpawn, err)
	}

	p.mu.Unlock()
	return nil
}

// CancelJob removes every queued (not yet dispatched) job matching
// (id, fn, payload) and returns how many were removed. Canceled jobs
// never invoke signalFn. A job already handed to a worker cannot be
// canceled — CancelJob only ever touches the queue.
func (p *Pool) CancelJob(id int, fn func(payload any), payload any) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.queue.cancel(id, fn, payload)
	if p.collector != nil && n > 0 {
		p.collector.jobsCanceled.Add(float64(n))
		p.collector.queuedJobs.Set(float64(p.queue.len()))
	}
	return n
}

// SetCollector attaches a Prometheus collector that tracks this pool's
// gauges and counters. Passing nil detaches the current collector. It is
// safe to call at any point in the pool's lifetime.
func (p *Pool) SetCollector(c *PoolCollector) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.collector = c
}

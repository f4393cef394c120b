package pthreadpool

import (
	"runtime"
	"time"
)

// spawnLocked starts one worker goroutine. The caller must hold p.mu.
// It never fails in the pure-Go translation (starting a goroutine
// cannot error the way pthread_create can), but keeps an error return so
// AddJob's "fall back to an existing worker, or to KindSpawn if none exist"
// path — which exists specifically to absorb transient thread-creation
// failure — stays meaningful if a future constrained build (e.g. a
// goroutine budget) introduces one.
func (p *Pool) spawnLocked() error {
	p.numThreads++
	if p.collector != nil {
		p.collector.currentThreads.Inc()
	}
	go p.workerLoop()
	return nil
}

// workerLoop is run by every worker goroutine. It mirrors
// pthreadpool_server: acquire the pool mutex once, then loop waiting for
// work with a 1s idle deadline, dequeue-run-signal with the mutex
// released across the user call, and self-terminate on idle timeout,
// stop, or a non-zero SignalFunc return.
func (p *Pool) workerLoop() {
	if p.perThreadCWD {
		// Locked for the goroutine's entire life: unsharing the
		// filesystem namespace only isolates this OS thread, so the
		// goroutine must never migrate to another one afterward.
		runtime.LockOSThread()
		unshareFS()
	}

	p.mu.Lock()

	for {
		if p.waitForWorkOrTimeout() {
			// Idle for a full second with nothing queued: retire.
			p.exitAndMaybeFreeLocked()
			return
		}

		if p.stopped {
			// waitForWorkOrTimeout can return with the queue still
			// non-empty if Stop() raced it in: a queued-but-undispatched
			// job must never run once the pool is stopped.
			p.exitAndMaybeFreeLocked()
			return
		}

		if j, ok := p.queue.pop(); ok {
			if p.collector != nil {
				p.collector.jobsDispatched.Inc()
				p.collector.queuedJobs.Set(float64(p.queue.len()))
			}

			p.mu.Unlock()
			start := time.Now()
			j.fn(j.payload)
			elapsed := time.Since(start)
			ret := p.signalFn(j.id, j.fn, j.payload, p.signalArg)
			if p.collector != nil {
				p.collector.jobDuration.Observe(elapsed.Seconds())
			}
			p.mu.Lock()

			if ret != 0 {
				// The job's side effects already happened and are
				// visible; only this completion notification is lost.
				// RestartCheck (driven by the monitor fd waking up) is
				// how a caller recovers capacity after this.
				p.exitAndMaybeFreeLocked()
				return
			}
			if p.collector != nil {
				p.collector.jobsCompleted.Inc()
			}
		}

		if p.stopped {
			p.exitAndMaybeFreeLocked()
			return
		}
	}
}

// waitForWorkOrTimeout blocks until the queue is non-empty, the pool is
// stopped, or a full idleTimeout has elapsed with neither happening. It
// must be called with p.mu held, and returns with p.mu still held.
//
// sync.Cond has no timed wait, so the 1s deadline is implemented with a
// one-shot timer that broadcasts the same condition variable on expiry;
// every waiter rechecks its own predicate on each wakeup the same way a
// spurious-wakeup-tolerant condvar loop always must, so sharing the
// broadcast across workers with independent deadlines is safe.
func (p *Pool) waitForWorkOrTimeout() bool {
	var timedOut bool
	timer := time.AfterFunc(idleTimeout, func() {
		p.mu.Lock()
		timedOut = true
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	defer timer.Stop()

	for p.queue.len() == 0 && !p.stopped {
		if timedOut {
			return true
		}

		p.numIdle++
		if p.collector != nil {
			p.collector.idleThreads.Inc()
		}
		p.cond.Wait()
		p.numIdle--
		if p.collector != nil {
			p.collector.idleThreads.Dec()
		}

		// A fork is in progress and wants every idle worker off cond
		// before it tears the condition variable down. Rendezvous on
		// forkMu (already locked by the forking goroutine) and go back
		// to waiting once the fork protocol releases it.
		if p.preforkCond != nil {
			pc := p.preforkCond
			pc.Signal()
			p.mu.Unlock()
			p.forkMu.Lock()
			p.forkMu.Unlock() //nolint:staticcheck // intentional lock/unlock rendezvous
			p.mu.Lock()
		}
	}
	return false
}

// exitAndMaybeFreeLocked retires the calling worker. It must be called
// with p.mu held and does not return it locked.
func (p *Pool) exitAndMaybeFreeLocked() {
	p.numThreads--
	if p.collector != nil {
		p.collector.currentThreads.Dec()
		p.collector.workerExits.Inc()
	}
	if p.pipe != nil {
		p.pipe.notify()
	}
	freeIt := p.destroyed && p.numThreads == 0
	p.mu.Unlock()

	if freeIt {
		defaultRegistry.unregister(p.handle)
	}
}

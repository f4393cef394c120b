package pthreadpool

// MonitorFD returns a dup'd, close-on-exec, non-blocking descriptor that
// becomes readable whenever a worker has exited. An external event loop
// adds this fd to its poll/epoll/kqueue set; on readability it should
// call Drain and then RestartCheck. The returned fd is owned by the
// caller — closing it does not affect the pool, and the pool's own copy
// keeps working independently.
//
// MonitorFD fails with KindUnsupported on a synchronous pool (maxThreads
// == 0, which never allocates a pipe) and on any platform without a
// self-pipe implementation.
func (p *Pool) MonitorFD() (int, error) {
	p.mu.Lock()
	pipe := p.pipe
	stopped := p.stopped
	p.mu.Unlock()

	if pipe == nil {
		return -1, newErr("MonitorFD", KindUnsupported, nil)
	}
	if stopped {
		return -1, newErr("MonitorFD", KindInvalid, nil)
	}
	return pipe.dup()
}

// Drain consumes every pending wakeup byte from the monitor descriptor.
// Call it once after the monitor fd reports readable, before
// RestartCheck, the same way the original pairs
// pthreadpool_restart_check_monitor_drain with
// pthreadpool_restart_check.
func (p *Pool) Drain() error {
	p.mu.Lock()
	pipe := p.pipe
	p.mu.Unlock()

	if pipe == nil {
		return nil
	}
	return pipe.drainOnce()
}

// RestartCheck wakes any already-idle worker and spawns as many fresh
// ones as are needed to cover queued jobs an idle worker can't already
// reach, without exceeding maxThreads. Call it after Drain whenever the
// monitor fd reports readable: a worker that just exited (whether
// idle-timed-out or killed by a failing SignalFunc) may have left
// queued work with nobody to run it.
//
// It fails with KindInvalid on a stopped pool, matching MonitorFD.
func (p *Pool) RestartCheck() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return newErr("RestartCheck", KindInvalid, nil)
	}

	if p.numIdle > 0 {
		p.cond.Broadcast()
	}

	queued := p.queue.len()
	possible := p.maxThreads - p.numThreads

	var missing uint
	if uint(queued) > p.numIdle {
		missing = uint(queued) - p.numIdle
	}

	want := missing
	if possible < want {
		want = possible
	}

	for i := uint(0); i < want; i++ {
		if err := p.spawnLocked(); err != nil {
			return newErr("RestartCheck", KindSpawn, err)
		}
	}
	return nil
}

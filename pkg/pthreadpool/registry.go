package pthreadpool

import "sync"

// registryHandle identifies a pool's slot in the process-wide registry.
// The zero value never refers to a real slot.
type registryHandle uint64

type registryEntry struct {
	handle registryHandle
	pool   *Pool
}

// Registry tracks every live pool in the process, in registration
// order, so the fork protocol (PrepareFork / AfterForkInParent /
// AfterForkInChild) can visit all of them around a raw fork(2) call.
// This mirrors the original's static atfork-registered DLIST of pools,
// built the first time any pool is initialized; here it is just an
// explicit, always-present registry rather than something wired up
// lazily through pthread_atfork.
type Registry struct {
	mu      sync.Mutex
	next    registryHandle
	entries []registryEntry
}

var defaultRegistry = &Registry{}

func (r *Registry) register(p *Pool) registryHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	h := r.next
	r.entries = append(r.entries, registryEntry{handle: h, pool: p})
	return h
}

func (r *Registry) unregister(h registryHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.handle == h {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// forward returns the registered pools in registration order, the
// order pthreadpool_prepare_pool walks its DLIST in.
func (r *Registry) forward() []*Pool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Pool, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.pool
	}
	return out
}

// reverse returns the registered pools in reverse registration order,
// the order pthreadpool_parent/pthreadpool_child walk the same DLIST in
// (via DLIST_PREV) to undo what prepare_pool did in forward order.
func (r *Registry) reverse() []*Pool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Pool, len(r.entries))
	for i, e := range r.entries {
		out[len(r.entries)-1-i] = e.pool
	}
	return out
}

// PrepareFork readies every live pool in the process for a raw fork(2)
// call: each pool evacuates its idle workers off their condition
// variable and holds its fork mutex locked, so the child — which wakes
// up with exactly one goroutine and no copy of any other goroutine's
// stack — never observes a condition variable with waiters that will
// never be woken.
//
// Call this immediately before invoking a raw fork syscall (there is no
// portable raw fork in Go's standard library; callers doing this reach
// for golang.org/x/sys/unix.RawSyscall(unix.SYS_FORK, ...) or similar,
// typically from a small amount of syscall.ForkLock-style bracketing
// code of their own). AfterForkInParent or AfterForkInChild must be
// called exactly once afterward, on whichever side of the fork the
// caller is running on, to release what PrepareFork locked.
func PrepareFork() {
	for _, p := range defaultRegistry.forward() {
		p.prepareFork()
	}
}

// AfterForkInParent undoes PrepareFork in the process that still has all
// of its original goroutines (the parent after fork, or the only process
// if PrepareFork's caller decides not to fork after all). Pools are
// released in reverse registration order, undoing PrepareFork's forward
// walk the same way pthreadpool_parent undoes pthreadpool_prepare_pool.
func AfterForkInParent() {
	for _, p := range defaultRegistry.reverse() {
		p.afterForkInParent()
	}
}

// AfterForkInChild undoes PrepareFork in the freshly forked child. The
// child has inherited no worker goroutines — Go's runtime does not
// recreate them across fork — so this also resets the pool's thread
// bookkeeping to reflect that reality. Unlike the parent side, the child
// pool is left stopped and its self-pipe closed: a forked child inheriting
// a live copy of the parent's pool would silently duplicate it, so the
// child must re-create its own pool rather than resume this one. Pools
// are visited in reverse registration order, matching pthreadpool_child.
func AfterForkInChild() {
	for _, p := range defaultRegistry.reverse() {
		p.afterForkInChild()
	}
}

func (p *Pool) prepareFork() {
	p.mu.Lock()
	p.preforkCond = sync.NewCond(&p.mu)
	p.forkMu.Lock()

	for p.numIdle > 0 {
		p.cond.Broadcast()
		p.preforkCond.Wait()
	}

	p.mu.Unlock()
}

func (p *Pool) afterForkInParent() {
	p.mu.Lock()
	p.preforkCond = nil
	p.mu.Unlock()
	p.forkMu.Unlock()
}

func (p *Pool) afterForkInChild() {
	p.mu.Lock()
	p.preforkCond = nil
	p.numThreads = 0
	p.numIdle = 0
	p.queue = newJobQueue()
	p.cond = sync.NewCond(&p.mu)
	p.stopped = true
	pipe := p.pipe
	p.mu.Unlock()
	p.forkMu = sync.Mutex{}

	if pipe != nil {
		pipe.close()
	}
}

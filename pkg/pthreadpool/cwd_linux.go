//go:build linux

package pthreadpool

import (
	"runtime"
	"sync"

	"golang.org/x/sys/unix"
)

// perThreadCWDSupported probes, once per process, whether a goroutine
// locked to its own OS thread can unshare its filesystem namespace
// (CLONE_FS) so a chdir on that thread doesn't affect any other thread.
// This mirrors pthreadpool_prep_atfork's one-time unshare probe: it
// unshares on a throwaway goroutine that stays locked to its OS thread
// until it exits, so the runtime terminates that thread instead of
// reusing it and the probe itself leaves nothing behind.
var (
	cwdProbeOnce sync.Once
	cwdSupported bool
)

func perThreadCWDSupported() bool {
	cwdProbeOnce.Do(func() {
		done := make(chan struct{})
		go func() {
			defer close(done)
			runtime.LockOSThread()
			cwdSupported = unix.Unshare(unix.CLONE_FS) == nil
		}()
		<-done
	})
	return cwdSupported
}

// unshareFS isolates the calling worker goroutine's filesystem view
// (current directory, root) from every other worker's. It is only ever
// called from a goroutine that has already called runtime.LockOSThread
// for its entire lifetime (workerLoop does this before calling it), so
// the unshare's effect can't leak onto a different job's thread.
func unshareFS() {
	_ = unix.Unshare(unix.CLONE_FS)
}

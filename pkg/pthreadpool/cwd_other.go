//go:build !linux

package pthreadpool

// perThreadCWDSupported is always false outside Linux: CLONE_FS-style
// per-thread filesystem unsharing has no equivalent on other unix
// targets, let alone non-unix ones.
func perThreadCWDSupported() bool { return false }

func unshareFS() {}

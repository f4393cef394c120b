//go:build !unix

package pthreadpool

// selfPipe is unavailable outside unix-family targets: there is no
// dup-able, close-on-exec, non-blocking fd primitive to build one from
// in the standard library. Pools on these platforms simply never get a
// monitor pipe (perThreadCWD is similarly Linux-only),
// which MonitorFD already reports as KindUnsupported.
type selfPipe struct{}

func newSelfPipe() (*selfPipe, error) {
	return nil, newErr("Init", KindUnsupported, nil)
}

func (sp *selfPipe) close()             {}
func (sp *selfPipe) notify()            {}
func (sp *selfPipe) dup() (int, error)  { return -1, newErr("MonitorFD", KindUnsupported, nil) }
func (sp *selfPipe) drainOnce() error   { return nil }

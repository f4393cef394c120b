//go:build unix

package pthreadpool

import (
	"sync"

	"golang.org/x/sys/unix"
)

// selfPipe is the self-pipe backing a pool's monitor descriptor: the
// read end is blocking and handed out (via dup) to callers through
// MonitorFD; the write end is non-blocking and written to by an exiting
// worker so an external event loop learns it may need to RestartCheck.
type selfPipe struct {
	mu       sync.Mutex
	readFd   int
	writeFd  int
	isClosed bool
}

func newSelfPipe() (*selfPipe, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		return nil, err
	}
	if err := unix.SetNonblock(fds[1], true); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, err
	}
	return &selfPipe{readFd: fds[0], writeFd: fds[1]}, nil
}

// close is idempotent: Stop closes the pipe, and AfterForkInChild closes
// it again on a pool that may already be stopped, so double-close must
// be safe.
func (sp *selfPipe) close() {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.isClosed {
		return
	}
	sp.isClosed = true
	unix.Close(sp.readFd)
	unix.Close(sp.writeFd)
}

// notify writes a single wakeup byte to the write end, retrying once on
// EINTR and treating EAGAIN/EWOULDBLOCK as success: the pipe already has
// a byte pending, which is all a level-triggered reader needs.
func (sp *selfPipe) notify() {
	sp.mu.Lock()
	writeFd := sp.writeFd
	closed := sp.isClosed
	sp.mu.Unlock()
	if closed {
		return
	}

	buf := [1]byte{}
	for attempt := 0; attempt < 2; attempt++ {
		_, err := unix.Write(writeFd, buf[:])
		if err != unix.EINTR {
			return
		}
	}
}

// dup returns a fresh close-on-exec, non-blocking descriptor on the read
// end, or an error if the pipe has already been closed.
func (sp *selfPipe) dup() (int, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.isClosed {
		return -1, newErr("MonitorFD", KindUnsupported, nil)
	}

	fd, err := unix.FcntlInt(uintptr(sp.readFd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// drainOnce performs one non-blocking read pass over the read end,
// through a fresh non-blocking dup of it, returning nil once the pipe is
// empty (or was already closed) and the read error otherwise.
func (sp *selfPipe) drainOnce() error {
	sp.mu.Lock()
	closed := sp.isClosed
	sp.mu.Unlock()
	if closed {
		return nil
	}

	fd, err := sp.dup()
	if err != nil {
		return err
	}
	defer unix.Close(fd)

	var buf [128]byte
	for {
		n, err := unix.Read(fd, buf[:])
		if err != nil {
			switch err {
			case unix.EINTR:
				continue
			case unix.EAGAIN:
				return nil
			default:
				return err
			}
		}
		if n < len(buf) {
			return nil
		}
	}
}

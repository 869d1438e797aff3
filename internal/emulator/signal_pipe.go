package emulator

import (
	"os"

	"golang.org/x/sys/unix"
)

// pipeEnd wraps one end of the session's wakeup pipe. The pipe carries no
// data of interest — a single byte means "something changed, render a
// frame" — so poke and drain never look at what they move, only whether
// there was anything to move.
type pipeEnd struct {
	f *os.File
}

// newSignalPipe creates a non-blocking pipe per §4.5: the reader thread
// pokes the write end after feeding the emulator, and the event loop polls
// the read end (registered with internal/loop) to know when to render.
func newSignalPipe() (r, w *pipeEnd, err error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, nil, err
	}
	return &pipeEnd{f: os.NewFile(uintptr(fds[0]), "prise-signal-r")},
		&pipeEnd{f: os.NewFile(uintptr(fds[1]), "prise-signal-w")},
		nil
}

// File exposes the underlying *os.File, e.g. to register the read end with
// the event loop via loop.Register (which accepts any io.ReadWriteCloser).
func (p *pipeEnd) File() *os.File { return p.f }

func (p *pipeEnd) Read(b []byte) (int, error)  { return p.f.Read(b) }
func (p *pipeEnd) Write(b []byte) (int, error) { return p.f.Write(b) }
func (p *pipeEnd) Close() error                { return p.f.Close() }

// poke writes a single byte, ignoring EAGAIN: a full pipe already means a
// wakeup is pending, which is all poke promises.
func (p *pipeEnd) poke() {
	rc, err := p.f.SyscallConn()
	if err != nil {
		return
	}
	// Returning true makes the write a single attempt: the runtime poller
	// never waits for writability, so EAGAIN is simply dropped.
	rc.Write(func(fd uintptr) bool {
		_, _ = unix.Write(int(fd), []byte{0})
		return true
	})
}

// drain reads until the pipe is empty, coalescing any number of pokes
// that accumulated since the last drain into a single wakeup.
func (p *pipeEnd) drain() {
	rc, err := p.f.SyscallConn()
	if err != nil {
		return
	}
	buf := make([]byte, 64)
	// Raw reads return EAGAIN on an empty pipe instead of parking in the
	// runtime poller, so drain never blocks the loop thread.
	rc.Read(func(fd uintptr) bool {
		for {
			n, err := unix.Read(int(fd), buf)
			if n <= 0 || err != nil {
				return true
			}
		}
	})
}

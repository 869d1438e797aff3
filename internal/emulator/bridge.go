// Package emulator bridges a PTY's raw output to a terminal emulator
// (github.com/hinshun/vt10x) on a dedicated reader thread, per §4.4: the
// emulator's parser is not cancellation-safe, so it is fed whole chunks
// under a session mutex from a blocking OS thread that never touches the
// event loop, client sockets, or the registry.
package emulator

import (
	"bytes"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hinshun/vt10x"

	"github.com/oneopane/prise/internal/keyenc"
	"github.com/oneopane/prise/internal/ptysvc"
	"github.com/oneopane/prise/internal/snapshot"
)

const readChunk = 4096

var (
	syncEnter = []byte("\x1b[?2026h")
	syncExit  = []byte("\x1b[?2026l")
)

// Bridge owns one session's emulator, its PTY, and the reader thread that
// keeps them in sync. Signal is a non-blocking pipe: the reader thread
// pokes its write end after every chunk that leaves the emulator outside
// synchronized-output mode; the event loop polls the read end to drive the
// frame scheduler.
type Bridge struct {
	mu     sync.Mutex // the session mutex; guards vt, grid, and styles
	vt     vt10x.Terminal
	pty    *ptysvc.PTY
	grid   *snapshot.Grid
	styles *snapshot.StyleTable

	sigR, sigW *pipeEnd

	running      atomic.Bool
	synchronized bool // DEC 2026 synchronized-output mode, tracked locally

	exited chan struct{}
}

// New wires vt (already constructed with vt10x.WithWriter(pty.Master) so
// device-query responses flow back to the child) to pty and starts the
// reader thread.
func New(vt vt10x.Terminal, pty *ptysvc.PTY) (*Bridge, error) {
	r, w, err := newSignalPipe()
	if err != nil {
		return nil, err
	}

	b := &Bridge{
		vt:     vt,
		pty:    pty,
		grid:   snapshot.NewGrid(),
		styles: snapshot.NewStyleTable(),
		sigR:   r,
		sigW:   w,
		exited: make(chan struct{}),
	}
	b.running.Store(true)

	go b.readLoop()
	return b, nil
}

// SignalReader exposes the pipe's read end so the caller can register it
// with the event loop and poll for wakeups, per §4.5.
func (b *Bridge) SignalReader() *pipeEnd {
	return b.sigR
}

// Drain empties the signal pipe; multiple wakes between frames coalesce
// into the single drain the frame scheduler performs on each wake.
func (b *Bridge) Drain() {
	b.sigR.drain()
}

// readLoop is the dedicated OS thread: one blocking Read per iteration,
// same realization strategy as the event loop's per-op goroutines, just
// never handed back to a channel since the PTY's lifetime is this
// session's lifetime. It is the only goroutine that feeds PTY output into
// vt (Resize also changes vt's dimensions, under the same mutex) and the
// only writer to the signal pipe.
func (b *Bridge) readLoop() {
	defer close(b.exited)

	buf := make([]byte, readChunk)
	for b.running.Load() {
		n, err := b.pty.Master.Read(buf)
		if n > 0 {
			b.feed(buf[:n])
		}
		if err != nil {
			break
		}
	}

	if _, err := b.pty.Wait(); err != nil {
		log.Printf("emulator: child wait: %v", err)
	}
}

// feed hands one chunk to the emulator under the session mutex and pokes
// the signal pipe unless synchronized-output mode is active.
func (b *Bridge) feed(chunk []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.trackSyncMode(chunk)

	if _, err := b.vt.Write(chunk); err != nil {
		log.Printf("emulator: parse error: %v", err)
		return
	}

	if !b.synchronized {
		b.sigW.poke()
	}
}

// trackSyncMode scans chunk for DEC 2026 synchronized-output toggles.
// vt10x doesn't model this mode itself, so the bridge tracks it directly;
// a chunk that both enters and exits sync mode leaves the flag however the
// last toggle left it, matching the terminal's own semantics.
func (b *Bridge) trackSyncMode(chunk []byte) {
	enterIdx := bytes.LastIndex(chunk, syncEnter)
	exitIdx := bytes.LastIndex(chunk, syncExit)
	if enterIdx < 0 && exitIdx < 0 {
		return
	}
	b.synchronized = enterIdx > exitIdx
}

// WithLock runs fn with the session mutex held, giving callers (snapshot
// capture, the key encoder) safe access to the live emulator.
func (b *Bridge) WithLock(fn func(vt vt10x.Terminal)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b.vt)
}

// Capture takes a screen snapshot under the session mutex. forceFull
// promotes the capture per §4.6 (first attach, resize, mode change).
func (b *Bridge) Capture(forceFull bool) snapshot.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return snapshot.Capture(snapshot.Wrap(b.vt), b.grid, b.styles, forceFull)
}

// Resize updates both the PTY window size and the emulator's model of it,
// atomically with respect to any in-flight Write/Capture.
func (b *Bridge) Resize(rows, cols uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.pty.Resize(rows, cols); err != nil {
		return err
	}
	b.vt.Resize(int(cols), int(rows))
	return nil
}

// WriteRaw writes data to the PTY master directly, for the write_pty
// request/notification: a simple byte pass-through with no encoding.
// Reads and writes on a PTY master are independent directions of the same
// fd, so this needs no coordination with the reader thread's reads.
func (b *Bridge) WriteRaw(data []byte) (int, error) {
	return b.pty.Master.Write(data)
}

// WriteKey encodes in under the session mutex (so the mode bits it
// consults can't change between being read and being acted on) and writes
// the resulting byte sequence to the PTY master.
func (b *Bridge) WriteKey(in keyenc.Input) error {
	b.mu.Lock()
	seq := keyenc.Encode(in, b.vt.Mode())
	b.mu.Unlock()

	_, err := b.pty.Master.Write(seq)
	return err
}

// Stop sets running=false, sends SIGHUP to the child, and blocks until the
// reader thread has fully exited (and reaped the child) before returning.
// Matches §3's "destruction is synchronous and joins the reader thread
// after setting running=false and sending SIGHUP to the child."
func (b *Bridge) Stop() {
	b.running.Store(false)
	b.pty.SendHUP()

	select {
	case <-b.exited:
	case <-time.After(2 * time.Second):
		b.pty.Kill()
		<-b.exited
	}

	b.pty.CloseMaster()
	b.sigR.Close()
	b.sigW.Close()
}

// Package loop implements the daemon's single-threaded, completion-style
// event reactor. Every socket read/write, every accept, and every render
// timer is submitted here and resolved exactly once via a callback that
// runs on the loop's own goroutine — the one place in the daemon allowed
// to touch client sockets or mutate registry state.
//
// Go has no portable completion-queue primitive comparable to io_uring or
// IOCP, so each submitted operation is carried out by a short-lived
// goroutine performing one blocking call (Accept/Read/Write) and reporting
// back on a single channel that the loop goroutine drains serially. This
// keeps the daemon's concurrency contract — one thread executes every
// callback, one at a time, in submission order per connection — while
// using ordinary goroutines and channels instead of raw file descriptors.
package loop

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Op identifies the kind of operation a Completion resolves.
type Op int

const (
	OpAccept Op = iota
	OpRecv
	OpSend
	OpRead
	OpTimeout
	OpClose
	OpFunc
)

// ConnID identifies a registered connection for the lifetime of that
// connection, standing in for the "accepted socket file descriptor" the
// spec keys client and PTY-reader identity on.
type ConnID uint64

// Handle is returned by every Submit* call. CancelTask uses it to void a
// specific pending operation (used for render timers); CancelByConn voids
// every pending operation for a connection at once (used on disconnect).
type Handle uint64

// Completion describes the result of one submitted operation. Callbacks
// must not block: the loop goroutine calls them inline while draining its
// completion channel.
type Completion struct {
	Handle    Handle
	Op        Op
	Conn      ConnID
	N         int
	Data      []byte
	NewConn   ConnID      // set on OpAccept
	RawConn   net.Conn    // set on OpAccept; the registered net.Conn itself
	Value     interface{} // set on OpFunc
	Err       error
	Cancelled bool
}

// CompletionFunc is invoked exactly once per submitted operation, always on
// the loop goroutine.
type CompletionFunc func(Completion)

type pendingConn struct {
	rw         io.ReadWriteCloser
	generation uint64
}

type pendingTimer struct {
	timer *time.Timer
	live  bool
}

// Loop is the reactor. The zero value is not usable; use New.
type Loop struct {
	completions chan Completion
	stop        chan struct{}
	stopped     atomic.Bool

	nextHandle atomic.Uint64
	nextConn   atomic.Uint64

	mu      sync.Mutex
	conns   map[ConnID]*pendingConn
	timers  map[Handle]*pendingTimer
	callbacks map[Handle]CompletionFunc
}

// New creates a Loop with an unstarted reactor; call Run to start draining
// completions on the calling goroutine.
func New() *Loop {
	return &Loop{
		completions: make(chan Completion, 64),
		stop:        make(chan struct{}),
		conns:       make(map[ConnID]*pendingConn),
		timers:      make(map[Handle]*pendingTimer),
		callbacks:   make(map[Handle]CompletionFunc),
	}
}

// Register adopts rw under a fresh ConnID. Every subsequent Submit* call
// for this connection uses that ID in place of a raw file descriptor. rw
// may be a socket (net.Conn) or any other blocking stream — e.g. the
// signal pipe's read end — since the loop only ever calls Read/Write/Close
// on it.
func (l *Loop) Register(rw io.ReadWriteCloser) ConnID {
	id := ConnID(l.nextConn.Add(1))
	l.mu.Lock()
	l.conns[id] = &pendingConn{rw: rw}
	l.mu.Unlock()
	return id
}

// Forget drops bookkeeping for a connection without touching the socket;
// callers close the underlying net.Conn themselves via SubmitClose.
func (l *Loop) Forget(id ConnID) {
	l.mu.Lock()
	delete(l.conns, id)
	l.mu.Unlock()
}

func (l *Loop) connGeneration(id ConnID) (io.ReadWriteCloser, uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pc, ok := l.conns[id]
	if !ok {
		return nil, 0, false
	}
	return pc.rw, pc.generation, true
}

func (l *Loop) newHandle() Handle {
	return Handle(l.nextHandle.Add(1))
}

func (l *Loop) post(c Completion) {
	select {
	case l.completions <- c:
	case <-l.stop:
	}
}

// SubmitAccept performs one blocking Accept on ln and reports the new
// connection. Callers resubmit after each completion to keep accepting.
func (l *Loop) SubmitAccept(ln net.Listener, cb CompletionFunc) Handle {
	h := l.newHandle()
	l.setCallback(h, cb)
	go func() {
		conn, err := ln.Accept()
		var newID ConnID
		if err == nil {
			newID = l.Register(conn)
		}
		l.post(Completion{Handle: h, Op: OpAccept, NewConn: newID, RawConn: conn, Err: err})
	}()
	return h
}

// SubmitRecv performs one blocking Read into a fresh buffer of up to max
// bytes. A zero-byte read with a nil error is reported as io.EOF to match
// this package's single "disconnect" signal.
func (l *Loop) SubmitRecv(id ConnID, max int, cb CompletionFunc) Handle {
	h := l.newHandle()
	l.setCallback(h, cb)
	conn, gen, ok := l.connGeneration(id)
	if !ok {
		l.post(Completion{Handle: h, Op: OpRecv, Conn: id, Err: net.ErrClosed})
		return h
	}
	go func() {
		buf := make([]byte, max)
		n, err := conn.Read(buf)
		if n == 0 && err == nil {
			err = io.EOF
		}
		l.completeConn(h, OpRecv, id, gen, buf[:n], n, err)
	}()
	return h
}

// SubmitSend writes buf in full before completing.
func (l *Loop) SubmitSend(id ConnID, buf []byte, cb CompletionFunc) Handle {
	h := l.newHandle()
	l.setCallback(h, cb)
	conn, gen, ok := l.connGeneration(id)
	if !ok {
		l.post(Completion{Handle: h, Op: OpSend, Conn: id, Err: net.ErrClosed})
		return h
	}
	go func() {
		n, err := conn.Write(buf)
		l.completeConn(h, OpSend, id, gen, nil, n, err)
	}()
	return h
}

// SubmitRead is SubmitRecv's counterpart for non-socket blocking readers —
// the PTY-owned signal pipe's read end is registered and polled this way.
func (l *Loop) SubmitRead(id ConnID, max int, cb CompletionFunc) Handle {
	return l.SubmitRecv(id, max, cb)
}

// SubmitTimeout fires cb after d elapses unless cancelled first.
func (l *Loop) SubmitTimeout(d time.Duration, cb CompletionFunc) Handle {
	h := l.newHandle()
	l.setCallback(h, cb)

	l.mu.Lock()
	pt := &pendingTimer{live: true}
	l.timers[h] = pt
	l.mu.Unlock()

	pt.timer = time.AfterFunc(d, func() {
		l.mu.Lock()
		live := pt.live
		delete(l.timers, h)
		l.mu.Unlock()
		if !live {
			return
		}
		l.post(Completion{Handle: h, Op: OpTimeout})
	})
	return h
}

// SubmitFunc runs fn on a fresh goroutine and reports its result through
// the loop, same realization strategy as every other Submit* call. Used
// for operations the loop has no dedicated primitive for — principally
// decoding one framed RPC message at a time, which may take an arbitrary
// number of underlying reads that the codec manages internally.
func (l *Loop) SubmitFunc(fn func() (interface{}, error), cb CompletionFunc) Handle {
	h := l.newHandle()
	l.setCallback(h, cb)
	go func() {
		v, err := fn()
		l.post(Completion{Handle: h, Op: OpFunc, Value: v, Err: err})
	}()
	return h
}

// SubmitClose closes the connection's socket and reports completion once
// done. Callers must CancelByConn first to void any in-flight recv/send
// whose completion would otherwise race a stale pointer.
func (l *Loop) SubmitClose(id ConnID, cb CompletionFunc) Handle {
	h := l.newHandle()
	l.setCallback(h, cb)
	conn, _, ok := l.connGeneration(id)
	l.Forget(id)
	go func() {
		var err error
		if ok {
			err = conn.Close()
		} else {
			err = net.ErrClosed
		}
		l.post(Completion{Handle: h, Op: OpClose, Conn: id, Err: err})
	}()
	return h
}

// CancelByConn bumps the connection's generation so any recv/send
// completion already in flight for it is delivered as Cancelled instead of
// acted on. It cannot interrupt a syscall already blocked in the kernel —
// cancellation here is advisory, exactly as the reactor contract allows.
func (l *Loop) CancelByConn(id ConnID) {
	l.mu.Lock()
	if pc, ok := l.conns[id]; ok {
		pc.generation++
	}
	l.mu.Unlock()
}

// CancelTask voids a specific pending timer. No-op for operations that
// have already completed or that aren't cancellable (accept/recv/send are
// cancelled as a group via CancelByConn instead).
func (l *Loop) CancelTask(h Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if pt, ok := l.timers[h]; ok {
		pt.live = false
		pt.timer.Stop()
		delete(l.timers, h)
	}
}

func (l *Loop) setCallback(h Handle, cb CompletionFunc) {
	l.mu.Lock()
	l.callbacks[h] = cb
	l.mu.Unlock()
}

func (l *Loop) completeConn(h Handle, op Op, id ConnID, gen uint64, data []byte, n int, err error) {
	_, curGen, ok := l.connGeneration(id)
	cancelled := !ok || curGen != gen
	l.post(Completion{Handle: h, Op: op, Conn: id, Data: data, N: n, Err: err, Cancelled: cancelled})
}

// Run drains completions on the calling goroutine until Stop is called.
// Every CompletionFunc executes here, one at a time, in the order their
// completions arrive — this goroutine is the daemon's single source of
// truth for socket I/O and registry mutation.
func (l *Loop) Run() error {
	for {
		select {
		case c, ok := <-l.completions:
			if !ok {
				return nil
			}
			l.mu.Lock()
			cb, found := l.callbacks[c.Handle]
			delete(l.callbacks, c.Handle)
			l.mu.Unlock()
			if found && cb != nil {
				cb(c)
			}
		case <-l.stop:
			return nil
		}
	}
}

// Stop causes a blocked Run to return. Safe to call more than once.
func (l *Loop) Stop() {
	if l.stopped.CompareAndSwap(false, true) {
		close(l.stop)
	}
}

var errLoopStopped = errors.New("loop: stopped")

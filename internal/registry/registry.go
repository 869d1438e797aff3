// Package registry is the daemon's dispatcher: it owns every client and
// session, decodes and routes RPC messages arriving through the event
// loop, and enforces the send-queue and idle-shutdown invariants from
// §4.8 and §9. Everything here runs on the loop goroutine; the only
// exception is each session's emulator bridge, which has its own reader
// thread and its own mutex.
package registry

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hinshun/vt10x"

	"github.com/oneopane/prise/internal/emulator"
	"github.com/oneopane/prise/internal/frame"
	"github.com/oneopane/prise/internal/loop"
	"github.com/oneopane/prise/internal/ptysvc"
	"github.com/oneopane/prise/internal/redraw"
	"github.com/oneopane/prise/internal/rpc"
)

// Registry dispatches RPC traffic over lp and tracks every session and
// client for one daemon process.
type Registry struct {
	lp *loop.Loop

	sessions      map[uint64]*session
	clients       map[loop.ConnID]*client
	nextSessionID uint64

	exitOnIdle bool
	stateDir   string // best-effort session metadata sidecar directory; may be empty
	listener   net.Listener
}

// Options configures a Registry. ExitOnIdle is enabled by integration
// tests and left false in production so the daemon survives having zero
// attached clients. StateDir, when non-empty, receives one JSON file per
// session for external discovery (see writeSessionMeta); the core never
// reads these files back.
type Options struct {
	ExitOnIdle bool
	StateDir   string
}

// New builds a Registry bound to lp. Call Serve to start accepting.
func New(lp *loop.Loop, opts Options) *Registry {
	return &Registry{
		lp:         lp,
		sessions:   make(map[uint64]*session),
		clients:    make(map[loop.ConnID]*client),
		exitOnIdle: opts.ExitOnIdle,
		stateDir:   opts.StateDir,
	}
}

// Serve accepts connections on ln until the loop stops or, if ExitOnIdle
// is set, until the client list becomes empty after having been non-empty
// at least once.
func (r *Registry) Serve(ln net.Listener) {
	r.listener = ln
	r.submitAccept()
}

func (r *Registry) submitAccept() {
	r.lp.SubmitAccept(r.listener, r.onAccept)
}

func (r *Registry) onAccept(c loop.Completion) {
	if c.Err != nil {
		log.Printf("registry: accept: %v", c.Err)
		return
	}

	// The codec reads directly off the raw net.Conn: its Decode call makes
	// its own short blocking reads, the same blocking-goroutine contract
	// SubmitFunc relies on below. Sends go through the loop's registered
	// ConnID instead (see (*Registry).send), so reads and writes never
	// touch the connection from the same goroutine at once — exactly what
	// net.Conn promises is safe.
	codec := rpc.NewCodec(c.RawConn)
	cl := newClient(c.NewConn, codec)
	r.clients[c.NewConn] = cl

	r.submitDecode(cl)
	r.submitAccept()
}

// submitDecode reads the next framed message from cl off the loop thread
// and resubmits itself after each successful decode, the same
// self-resubmitting pattern SubmitAccept uses.
func (r *Registry) submitDecode(cl *client) {
	r.lp.SubmitFunc(func() (interface{}, error) {
		return cl.codec.ReadMessage()
	}, func(c loop.Completion) {
		if c.Cancelled {
			return
		}
		if c.Err != nil {
			r.onDisconnect(cl)
			return
		}
		r.onMessage(cl, c.Value.(rpc.Message))
		r.submitDecode(cl)
	})
}

func (r *Registry) onMessage(cl *client, msg rpc.Message) {
	switch m := msg.(type) {
	case rpc.Request:
		r.dispatchRequest(cl, m)
	case rpc.Notification:
		r.dispatchNotification(cl, m)
	default:
		log.Printf("registry: unexpected message shape %T from client", msg)
	}
}

// writeSessionMeta best-effort persists a discovery descriptor for s.
// Never read back by the core; failures are logged and ignored.
func (r *Registry) writeSessionMeta(s *session) {
	if r.stateDir == "" {
		return
	}
	dir := filepath.Join(r.stateDir, "sessions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("registry: session metadata dir: %v", err)
		return
	}
	path := filepath.Join(dir, fmt.Sprintf("%d.json", s.id))
	body := fmt.Sprintf(`{"id":%d,"rows":%d,"cols":%d,"attached_clients":%d,"keep_alive":%t}`,
		s.id, s.rows, s.cols, len(s.clients), s.keepAlive)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		log.Printf("registry: write session metadata: %v", err)
	}
}

func (r *Registry) removeSessionMeta(id uint64) {
	if r.stateDir == "" {
		return
	}
	os.Remove(filepath.Join(r.stateDir, "sessions", fmt.Sprintf("%d.json", id)))
}

// spawnSession creates a new PTY-backed session sized rows x cols,
// registers its signal pipe with the loop, and wires a frame scheduler
// that renders on wake.
func (r *Registry) spawnSession(rows, cols uint16) (*session, error) {
	if rows == 0 {
		rows = 24
	}
	if cols == 0 {
		cols = 80
	}

	p, err := ptysvc.Spawn(ptysvc.DefaultShell(), nil, rows, cols, nil)
	if err != nil {
		return nil, fmt.Errorf("spawn pty: %w", err)
	}

	vt := vt10x.New(vt10x.WithSize(int(cols), int(rows)), vt10x.WithWriter(p.Master))
	bridge, err := emulator.New(vt, p)
	if err != nil {
		return nil, fmt.Errorf("start emulator bridge: %w", err)
	}

	id := r.nextSessionID
	r.nextSessionID++

	s := newSession(id, bridge, rows, cols)
	s.sigConn = r.lp.Register(bridge.SignalReader().File())
	s.scheduler = frame.New(r.lp, time.Now, func() { r.render(s) })
	r.sessions[id] = s
	r.armSignalRead(s)
	r.writeSessionMeta(s)

	return s, nil
}

// armSignalRead submits the next read against a session's signal pipe.
// Each wake drains the pipe and pokes the frame scheduler, then
// resubmits, mirroring SubmitAccept's self-resubmission.
func (r *Registry) armSignalRead(s *session) {
	r.lp.SubmitRead(s.sigConn, 64, func(c loop.Completion) {
		if c.Cancelled {
			return
		}
		if c.Err != nil {
			return // session is tearing down; signal pipe was closed under us
		}
		s.bridge.Drain()
		s.scheduler.Wake()
		r.armSignalRead(s)
	})
}

// render captures a snapshot of s and sends one redraw notification to
// every attached client. Runs on the loop thread via the frame scheduler.
func (r *Registry) render(s *session) {
	forceFull := s.forceFull
	s.forceFull = false

	snap := s.bridge.Capture(forceFull)
	for connID, cl := range s.clients {
		seen, ok := cl.attached[s.id]
		if !ok {
			continue
		}
		n := redraw.Build(s.id, snap, seen)
		buf, err := rpc.EncodeMessage(n)
		if err != nil {
			log.Printf("registry: encode redraw for session %d: %v", s.id, err)
			continue
		}
		r.send(r.clients[connID], buf)
	}
}

// destroySession tears a session down: stops the bridge (which joins the
// reader thread and reaps the child), cancels its pending render timer
// and signal-pipe read, and removes it from the registry.
func (r *Registry) destroySession(s *session) {
	s.scheduler.CancelPending()
	r.lp.CancelByConn(s.sigConn)
	s.bridge.Stop()
	r.lp.Forget(s.sigConn)
	delete(r.sessions, s.id)
	r.removeSessionMeta(s.id)
}

// destroyIfIdle destroys s if it has no attached clients and keep-alive
// is not set, per §3's "a session with no attached clients and
// keep-alive=false is destroyed."
func (r *Registry) destroyIfIdle(s *session) {
	if s.idle() && !s.keepAlive {
		r.destroySession(s)
	}
}

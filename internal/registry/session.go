package registry

import (
	"github.com/oneopane/prise/internal/emulator"
	"github.com/oneopane/prise/internal/frame"
	"github.com/oneopane/prise/internal/loop"
)

// session is one PTY + its emulator bridge + the set of clients currently
// attached to it. Like client, it is touched only from the loop goroutine
// except for the bridge's own internals, which the bridge protects with
// its own mutex.
type session struct {
	id        uint64
	bridge    *emulator.Bridge
	scheduler *frame.Scheduler
	sigConn   loop.ConnID // the bridge's signal pipe, registered with the loop

	clients map[loop.ConnID]*client

	keepAlive   bool // set by an explicit detach_pty call
	forceFull   bool // next render is promoted to full regardless of dirty state
	rows, cols  uint16
}

func newSession(id uint64, b *emulator.Bridge, rows, cols uint16) *session {
	return &session{
		id:        id,
		bridge:    b,
		clients:   make(map[loop.ConnID]*client),
		forceFull: true, // first capture of a brand-new session is always full
		rows:      rows,
		cols:      cols,
	}
}

func (s *session) idle() bool {
	return len(s.clients) == 0
}

package registry

import "github.com/oneopane/prise/internal/loop"

// onDisconnect implements §4.8's disconnect sequence: cancel pending loop
// operations on the client's fd, detach it from every session (destroying
// any that are now idle with keep-alive unset), drop its send queue, and
// close the socket.
func (r *Registry) onDisconnect(cl *client) {
	if _, ok := r.clients[cl.conn]; !ok {
		return // already handled, e.g. a racing recv and send error both fired
	}

	r.lp.CancelByConn(cl.conn)

	for sessionID := range cl.attached {
		if s, ok := r.sessions[sessionID]; ok {
			delete(s.clients, cl.conn)
			r.destroyIfIdle(s)
		}
	}

	cl.queue = nil
	cl.state = sendIdle
	delete(r.clients, cl.conn)

	r.lp.SubmitClose(cl.conn, func(loop.Completion) {})

	r.maybeStopOnIdle()
}

// maybeStopOnIdle stops the loop once the client list is empty, if
// ExitOnIdle was requested — used by the test harness for a
// deterministic, self-terminating daemon run.
func (r *Registry) maybeStopOnIdle() {
	if r.exitOnIdle && len(r.clients) == 0 {
		r.lp.Stop()
	}
}

package registry

import "github.com/oneopane/prise/internal/loop"

// send implements §4.8's send-queue discipline: submit immediately if
// idle, otherwise enqueue. At most one send is ever in flight per client.
func (r *Registry) send(cl *client, buf []byte) {
	switch cl.state {
	case sendIdle:
		cl.state = sendInFlight
		r.submitSend(cl, buf)
	case sendInFlight:
		cl.state = sendInFlightQueued
		cl.queue = append(cl.queue, buf)
	case sendInFlightQueued:
		cl.queue = append(cl.queue, buf)
	}
}

func (r *Registry) submitSend(cl *client, buf []byte) {
	r.lp.SubmitSend(cl.conn, buf, func(c loop.Completion) {
		if c.Cancelled {
			return
		}
		if c.Err != nil {
			// On send error the queue is discarded; the client is about to
			// be disconnected by its next recv error anyway.
			cl.queue = nil
			cl.state = sendIdle
			return
		}
		r.onSendComplete(cl)
	})
}

func (r *Registry) onSendComplete(cl *client) {
	if len(cl.queue) == 0 {
		cl.state = sendIdle
		return
	}
	next := cl.queue[0]
	cl.queue = cl.queue[1:]
	cl.state = sendInFlight
	r.submitSend(cl, next)
}

package registry

import (
	"github.com/oneopane/prise/internal/loop"
	"github.com/oneopane/prise/internal/redraw"
	"github.com/oneopane/prise/internal/rpc"
)

// sendState models a client's outbound buffer explicitly rather than as
// nullable fields, per the design note that send-queue discipline is the
// single most important concurrency invariant here: Idle, InFlight, or
// InFlight with a non-empty queue behind it.
type sendState int

const (
	sendIdle sendState = iota
	sendInFlight
	sendInFlightQueued
)

// client is one accepted connection. Every field is touched only from the
// loop goroutine; there is no mutex because there is only ever one
// goroutine that's allowed to read or write them.
type client struct {
	conn  loop.ConnID
	codec *rpc.Codec

	attached map[uint64]*redraw.SeenStyles // session ID -> that session's seen-styles cache for this client

	state sendState
	queue [][]byte // pending send buffers, strictly FIFO
}

func newClient(conn loop.ConnID, codec *rpc.Codec) *client {
	return &client{
		conn:     conn,
		codec:    codec,
		attached: make(map[uint64]*redraw.SeenStyles),
	}
}

func (c *client) isAttached(sessionID uint64) bool {
	_, ok := c.attached[sessionID]
	return ok
}

func (c *client) attach(sessionID uint64) *redraw.SeenStyles {
	s := redraw.NewSeenStyles()
	c.attached[sessionID] = s
	return s
}

func (c *client) detach(sessionID uint64) {
	delete(c.attached, sessionID)
}

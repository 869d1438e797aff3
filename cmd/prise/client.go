package main

import (
	"fmt"
	"net"
	"os"

	"github.com/oneopane/prise/internal/rpc"
)

// rpcClient is a thin synchronous wrapper around one connection to
// prised: Call sends a request and blocks for its matching response,
// buffering any notifications received in between for the caller to
// drain afterward (attach needs exactly this to catch the full redraw
// that immediately follows attach_pty's response).
type rpcClient struct {
	conn   net.Conn
	codec  *rpc.Codec
	nextID uint32

	pending []rpc.Notification
}

func dial(sockPath string) (*rpcClient, error) {
	if sockPath == "" {
		sockPath = fmt.Sprintf("/tmp/prise-%d.sock", os.Getuid())
	}
	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", sockPath, err)
	}
	return &rpcClient{conn: conn, codec: rpc.NewCodec(conn)}, nil
}

func (c *rpcClient) Close() error { return c.conn.Close() }

// Call sends method(params) and returns its result, or an error built
// from the response's error field.
func (c *rpcClient) Call(method string, params []interface{}) (interface{}, error) {
	c.nextID++
	id := c.nextID
	if err := c.codec.WriteMessage(rpc.Request{MsgID: id, Method: method, Params: params}); err != nil {
		return nil, err
	}

	for {
		msg, err := c.codec.ReadMessage()
		if err != nil {
			return nil, err
		}
		switch m := msg.(type) {
		case rpc.Response:
			if m.MsgID != id {
				continue
			}
			if m.Error != nil {
				return nil, fmt.Errorf("%v", m.Error)
			}
			return m.Result, nil
		case rpc.Notification:
			c.pending = append(c.pending, m)
		}
	}
}

// Notify sends method(params) without waiting for a response.
func (c *rpcClient) Notify(method string, params []interface{}) error {
	return c.codec.WriteMessage(rpc.Notification{Method: method, Params: params})
}

// NextNotification returns the next buffered notification (from a prior
// Call), or reads one from the wire if none is buffered.
func (c *rpcClient) NextNotification() (rpc.Notification, error) {
	if len(c.pending) > 0 {
		n := c.pending[0]
		c.pending = c.pending[1:]
		return n, nil
	}
	for {
		msg, err := c.codec.ReadMessage()
		if err != nil {
			return rpc.Notification{}, err
		}
		if n, ok := msg.(rpc.Notification); ok {
			return n, nil
		}
	}
}

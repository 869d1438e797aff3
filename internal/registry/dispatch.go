package registry

import (
	"fmt"
	"log"

	"github.com/oneopane/prise/internal/keyenc"
	"github.com/oneopane/prise/internal/rpc"
)

// dispatchRequest routes one decoded Request to its handler and always
// sends exactly one Response, per the dispatcher's error convention: on
// failure, Error is a descriptive string and Result is nil.
func (r *Registry) dispatchRequest(cl *client, req rpc.Request) {
	result, errStr := r.call(cl, req.Method, req.Params)

	var resp rpc.Response
	if errStr != "" {
		resp = rpc.Response{MsgID: req.MsgID, Error: errStr, Result: nil}
	} else {
		resp = rpc.Response{MsgID: req.MsgID, Error: nil, Result: result}
	}

	buf, err := rpc.EncodeMessage(resp)
	if err != nil {
		log.Printf("registry: encode response: %v", err)
		return
	}
	r.send(cl, buf)

	// attach_pty's full redraw is a side effect of the request, not part
	// of the response: it must go out only after the response itself is
	// queued, or the client would see the notification before the result
	// it's unsolicited with respect to.
	if req.Method == "attach_pty" && errStr == "" {
		if id, ok := result.(uint64); ok {
			if s, ok := r.sessions[id]; ok {
				r.render(s)
			}
		}
	}
}

func (r *Registry) call(cl *client, method string, params []interface{}) (result interface{}, errStr string) {
	switch method {
	case "ping":
		return "pong", ""

	case "spawn_pty":
		rows := uint16(rpc.UintOr(params, 0, 24))
		cols := uint16(rpc.UintOr(params, 1, 80))
		s, err := r.spawnSession(rows, cols)
		if err != nil {
			log.Printf("registry: spawn_pty: %v", err)
			return nil, "spawn failed"
		}
		return s.id, ""

	case "attach_pty":
		id, err := rpc.Uint(params, 0)
		if err != nil {
			return nil, "invalid params"
		}
		s, ok := r.sessions[id]
		if !ok {
			return nil, "session not found"
		}
		// Re-attaching an already-attached client is a no-op that still
		// triggers a fresh full redraw, rather than an error: the source
		// was ambiguous here, and idempotence is the friendlier choice for
		// a client that reconnects after losing track of its own state.
		if !cl.isAttached(id) {
			s.clients[cl.conn] = cl
			cl.attach(id)
		}
		s.forceFull = true
		return id, ""

	case "detach_pty":
		id, err := rpc.Uint(params, 0)
		if err != nil {
			return nil, "invalid params"
		}
		s, ok := r.sessions[id]
		if !ok {
			return nil, "session not found"
		}
		r.detachClient(s, cl)
		s.keepAlive = true
		r.writeSessionMeta(s)
		return nil, ""

	case "write_pty":
		id, err := rpc.Uint(params, 0)
		if err != nil {
			return nil, "invalid params"
		}
		data, err := rpc.Bytes(params, 1)
		if err != nil {
			return nil, "invalid params"
		}
		s, ok := r.sessions[id]
		if !ok {
			return nil, "session not found"
		}
		if _, err := s.bridge.WriteRaw(data); err != nil {
			log.Printf("registry: write_pty: %v", err)
			return nil, "write failed"
		}
		return nil, ""

	case "resize_pty":
		id, err := rpc.Uint(params, 0)
		if err != nil {
			return nil, "invalid params"
		}
		s, ok := r.sessions[id]
		if !ok {
			return nil, "session not found"
		}
		rows := uint16(rpc.UintOr(params, 1, 24))
		cols := uint16(rpc.UintOr(params, 2, 80))
		if err := s.bridge.Resize(rows, cols); err != nil {
			log.Printf("registry: resize_pty: %v", err)
			return nil, "resize failed"
		}
		s.rows, s.cols = rows, cols
		s.forceFull = true
		r.writeSessionMeta(s)
		return nil, ""

	case "list_sessions":
		return r.listSessions(), ""

	default:
		return nil, fmt.Sprintf("unknown method %q", method)
	}
}

func (r *Registry) listSessions() []interface{} {
	out := make([]interface{}, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, map[string]interface{}{
			"id":               s.id,
			"rows":             s.rows,
			"cols":             s.cols,
			"attached_clients": len(s.clients),
			"keep_alive":       s.keepAlive,
		})
	}
	return out
}

// dispatchNotification handles the three accepted notifications; none
// produce a response.
func (r *Registry) dispatchNotification(cl *client, n rpc.Notification) {
	switch n.Method {
	case "write_pty":
		id, err := rpc.Uint(n.Params, 0)
		if err != nil {
			return
		}
		data, err := rpc.Bytes(n.Params, 1)
		if err != nil {
			return
		}
		if s, ok := r.sessions[id]; ok {
			if _, err := s.bridge.WriteRaw(data); err != nil {
				log.Printf("registry: write_pty notification: %v", err)
			}
		}

	case "key_input":
		id, err := rpc.Uint(n.Params, 0)
		if err != nil {
			return
		}
		s, ok := r.sessions[id]
		if !ok {
			return
		}
		notation, err := rpc.StringMap(n.Params, 1)
		if err != nil {
			return
		}
		key, _ := rpc.MapString(notation, "key")
		code, _ := rpc.MapString(notation, "code")
		in := keyenc.Input{
			Key:   key,
			Code:  code,
			Shift: rpc.MapBool(notation, "shiftKey"),
			Ctrl:  rpc.MapBool(notation, "ctrlKey"),
			Alt:   rpc.MapBool(notation, "altKey"),
			Meta:  rpc.MapBool(notation, "metaKey"),
		}
		if err := s.bridge.WriteKey(in); err != nil {
			log.Printf("registry: key_input: %v", err)
		}

	case "resize_pty":
		id, err := rpc.Uint(n.Params, 0)
		if err != nil {
			return
		}
		s, ok := r.sessions[id]
		if !ok {
			return
		}
		rows := uint16(rpc.UintOr(n.Params, 1, 24))
		cols := uint16(rpc.UintOr(n.Params, 2, 80))
		if err := s.bridge.Resize(rows, cols); err != nil {
			log.Printf("registry: resize_pty notification: %v", err)
			return
		}
		s.rows, s.cols = rows, cols
		s.forceFull = true

	default:
		log.Printf("registry: unknown notification method %q", n.Method)
	}
}

// detachClient removes cl from s's attached set without affecting
// keep-alive; callers that mean an explicit detach_pty also set
// keepAlive themselves.
func (r *Registry) detachClient(s *session, cl *client) {
	delete(s.clients, cl.conn)
	cl.detach(s.id)
}

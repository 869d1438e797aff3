package rpc

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-msgpack/codec"
)

// handle is shared across every Codec; go-msgpack handles are safe for
// concurrent use once configured, so one package-level instance avoids
// re-building the type cache per connection.
var handle = &codec.MsgpackHandle{RawToString: true}

// Codec reads and writes framed rpc.Message values over a stream. The
// MessagePack encoding is self-delimiting, so the underlying Decoder
// transparently blocks for more bytes when a message is only partially
// available instead of surfacing a framing error — this satisfies the
// "a read that delivers half a message must not be treated as an error"
// requirement without any buffering of our own.
type Codec struct {
	mu  sync.Mutex // serializes writes; at most one send is ever in flight anyway
	dec *codec.Decoder
	enc *codec.Encoder
	w   *bufio.Writer
}

// NewCodec wraps rw. Reads and writes are each buffered independently.
func NewCodec(rw io.ReadWriter) *Codec {
	r := bufio.NewReader(rw)
	w := bufio.NewWriter(rw)
	return &Codec{
		dec: codec.NewDecoder(r, handle),
		enc: codec.NewEncoder(w, handle),
		w:   w,
	}
}

// ReadMessage blocks until one complete top-level value has arrived and
// decodes it into a Request, Response, or Notification.
func (c *Codec) ReadMessage() (Message, error) {
	var raw []interface{}
	if err := c.dec.Decode(&raw); err != nil {
		return nil, err
	}
	return parseMessage(raw)
}

func parseMessage(raw []interface{}) (Message, error) {
	if len(raw) < 3 || len(raw) > 4 {
		return nil, &ErrMalformedMessage{Reason: fmt.Sprintf("top-level array has %d elements, want 3 or 4", len(raw))}
	}
	tag, ok := asInt(raw[0])
	if !ok {
		return nil, &ErrMalformedMessage{Reason: "leading element is not an integer type tag"}
	}

	switch tag {
	case TypeRequest:
		if len(raw) != 4 {
			return nil, &ErrMalformedMessage{Reason: "request must have 4 elements"}
		}
		msgid, ok := asUint32(raw[1])
		if !ok {
			return nil, &ErrMalformedMessage{Reason: "request msgid is not an unsigned integer"}
		}
		method, ok := raw[2].(string)
		if !ok {
			return nil, &ErrMalformedMessage{Reason: "request method is not a string"}
		}
		params, err := asParamSlice(raw[3])
		if err != nil {
			return nil, err
		}
		return Request{MsgID: msgid, Method: method, Params: params}, nil

	case TypeResponse:
		if len(raw) != 4 {
			return nil, &ErrMalformedMessage{Reason: "response must have 4 elements"}
		}
		msgid, ok := asUint32(raw[1])
		if !ok {
			return nil, &ErrMalformedMessage{Reason: "response msgid is not an unsigned integer"}
		}
		return Response{MsgID: msgid, Error: raw[2], Result: raw[3]}, nil

	case TypeNotification:
		if len(raw) != 3 {
			return nil, &ErrMalformedMessage{Reason: "notification must have 3 elements"}
		}
		method, ok := raw[1].(string)
		if !ok {
			return nil, &ErrMalformedMessage{Reason: "notification method is not a string"}
		}
		params, err := asParamSlice(raw[2])
		if err != nil {
			return nil, err
		}
		return Notification{Method: method, Params: params}, nil

	default:
		return nil, &ErrMalformedMessage{Reason: fmt.Sprintf("unknown type tag %d", tag)}
	}
}

// asParamSlice accepts either a sequence (the common case) or nil/omitted
// params decoded as nil, normalizing both to a possibly-empty slice.
func asParamSlice(v interface{}) ([]interface{}, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.([]interface{})
	if !ok {
		return nil, &ErrMalformedMessage{Reason: "params is not an array"}
	}
	return s, nil
}

// WriteMessage encodes m and flushes it. Safe for concurrent use, though
// callers in this codebase never have more than one send in flight per
// client anyway (see internal/registry's send-queue discipline).
func (c *Codec) WriteMessage(m Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var raw []interface{}
	switch v := m.(type) {
	case Request:
		raw = []interface{}{TypeRequest, v.MsgID, v.Method, v.Params}
	case Response:
		raw = []interface{}{TypeResponse, v.MsgID, v.Error, v.Result}
	case Notification:
		raw = []interface{}{TypeNotification, v.Method, v.Params}
	default:
		return fmt.Errorf("rpc: unknown message type %T", m)
	}

	if err := c.enc.Encode(raw); err != nil {
		return err
	}
	return c.w.Flush()
}

// EncodeMessage is WriteMessage without the shared writer/flush, used when
// the caller wants the raw bytes of a single message (e.g. to hand off to
// the send queue in internal/registry rather than write inline).
func EncodeMessage(m Message) ([]byte, error) {
	var raw []interface{}
	switch v := m.(type) {
	case Request:
		raw = []interface{}{TypeRequest, v.MsgID, v.Method, v.Params}
	case Response:
		raw = []interface{}{TypeResponse, v.MsgID, v.Error, v.Result}
	case Notification:
		raw = []interface{}{TypeNotification, v.Method, v.Params}
	default:
		return nil, fmt.Errorf("rpc: unknown message type %T", m)
	}

	var buf []byte
	enc := codec.NewEncoderBytes(&buf, handle)
	if err := enc.Encode(raw); err != nil {
		return nil, err
	}
	return buf, nil
}

func asInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	case uint:
		return int64(n), true
	case uint32:
		return int64(n), true
	case int32:
		return int64(n), true
	default:
		return 0, false
	}
}

func asUint32(v interface{}) (uint32, bool) {
	n, ok := asInt(v)
	if !ok || n < 0 {
		return 0, false
	}
	return uint32(n), true
}

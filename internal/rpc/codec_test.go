package rpc

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripRequest(t *testing.T) {
	var buf bytes.Buffer
	c := NewCodec(&buf)

	req := Request{MsgID: 7, Method: "ping", Params: []interface{}{}}
	require.NoError(t, c.WriteMessage(req))

	got, err := c.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestRoundTripResponse(t *testing.T) {
	var buf bytes.Buffer
	c := NewCodec(&buf)

	resp := Response{MsgID: 1, Error: nil, Result: "pong"}
	require.NoError(t, c.WriteMessage(resp))

	got, err := c.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, resp, got)
}

func TestRoundTripNotification(t *testing.T) {
	var buf bytes.Buffer
	c := NewCodec(&buf)

	note := Notification{Method: "redraw", Params: []interface{}{[]interface{}{"flush", []interface{}{}}}}
	require.NoError(t, c.WriteMessage(note))

	got, err := c.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, note, got)
}

// partialReader releases bytes to the decoder one at a time, exercising the
// "half a message must not be treated as an error" requirement.
type partialReader struct {
	data []byte
	pos  int
}

func (p *partialReader) Read(b []byte) (int, error) {
	if p.pos >= len(p.data) {
		return 0, io.EOF
	}
	b[0] = p.data[p.pos]
	p.pos++
	return 1, nil
}

func TestPartialReadsAreCombined(t *testing.T) {
	var buf bytes.Buffer
	enc := NewCodec(&buf)
	require.NoError(t, enc.WriteMessage(Request{MsgID: 1, Method: "ping", Params: []interface{}{}}))

	dec := NewCodec(&partialReader{data: buf.Bytes()})
	got, err := dec.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, Request{MsgID: 1, Method: "ping", Params: []interface{}{}}, got)
}

func TestMalformedTopLevelShape(t *testing.T) {
	var buf bytes.Buffer
	enc := NewCodec(&buf)
	require.NoError(t, enc.enc.Encode([]interface{}{0, 1}))
	require.NoError(t, enc.w.Flush())

	dec := NewCodec(&buf)
	_, err := dec.ReadMessage()
	require.Error(t, err)
	var malformed *ErrMalformedMessage
	assert.ErrorAs(t, err, &malformed)
}

func TestUnknownTypeTag(t *testing.T) {
	var buf bytes.Buffer
	enc := NewCodec(&buf)
	require.NoError(t, enc.enc.Encode([]interface{}{9, 1, "x"}))
	require.NoError(t, enc.w.Flush())

	dec := NewCodec(&buf)
	_, err := dec.ReadMessage()
	require.Error(t, err)
	var malformed *ErrMalformedMessage
	assert.ErrorAs(t, err, &malformed)
}

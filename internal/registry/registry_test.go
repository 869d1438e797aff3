package registry

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oneopane/prise/internal/loop"
)

func TestCallPingReturnsPong(t *testing.T) {
	r := New(loop.New(), Options{})
	result, errStr := r.call(nil, "ping", nil)
	require.Equal(t, "", errStr)
	require.Equal(t, "pong", result)
}

func TestCallUnknownMethodReturnsDescriptiveError(t *testing.T) {
	r := New(loop.New(), Options{})
	_, errStr := r.call(nil, "not_a_real_method", nil)
	require.Contains(t, errStr, "not_a_real_method")
}

func TestCallAttachUnknownSessionReturnsError(t *testing.T) {
	r := New(loop.New(), Options{})
	cl := newClient(1, nil)
	_, errStr := r.call(cl, "attach_pty", []interface{}{uint64(99)})
	require.Equal(t, "session not found", errStr)
}

func TestListSessionsEmptyByDefault(t *testing.T) {
	r := New(loop.New(), Options{})
	result, errStr := r.call(nil, "list_sessions", nil)
	require.Equal(t, "", errStr)
	require.Empty(t, result)
}

// TestSendPreservesFIFOOrderAcrossQueuedWrites drives three sends against a
// client before any of them has been read off the wire, then confirms they
// arrive in submission order: the first is carried out immediately, the
// rest queue behind it per §4.8's single-in-flight-send rule.
func TestSendPreservesFIFOOrderAcrossQueuedWrites(t *testing.T) {
	lp := loop.New()
	go lp.Run()
	defer lp.Stop()

	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	connID := lp.Register(serverConn)
	cl := newClient(connID, nil)
	r := New(lp, Options{})

	r.send(cl, []byte("A"))
	r.send(cl, []byte("B"))
	r.send(cl, []byte("C"))

	for _, want := range []string{"A", "B", "C"} {
		buf := make([]byte, 1)
		clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, err := clientConn.Read(buf)
		require.NoError(t, err)
		require.Equal(t, want, string(buf[:n]))
	}
}

func TestClientAttachTracksSessionsIndependently(t *testing.T) {
	cl := newClient(1, nil)
	require.False(t, cl.isAttached(5))

	seen := cl.attach(5)
	require.True(t, cl.isAttached(5))
	require.NotNil(t, seen)

	cl.detach(5)
	require.False(t, cl.isAttached(5))
}

func TestSessionIdleReflectsClientCount(t *testing.T) {
	s := newSession(1, nil, 24, 80)
	require.True(t, s.idle())

	cl := newClient(1, nil)
	s.clients[cl.conn] = cl
	require.False(t, s.idle())
}

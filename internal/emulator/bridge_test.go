package emulator

import (
	"testing"
	"time"

	"github.com/hinshun/vt10x"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneopane/prise/internal/ptysvc"
)

func spawnBridge(t *testing.T, script string) *Bridge {
	t.Helper()
	p, err := ptysvc.Spawn("/bin/sh", []string{"-c", script}, 24, 80, nil)
	require.NoError(t, err)

	vt := vt10x.New(vt10x.WithSize(80, 24), vt10x.WithWriter(p.Master))
	b, err := New(vt, p)
	require.NoError(t, err)
	t.Cleanup(b.Stop)
	return b
}

func waitForWake(t *testing.T, b *Bridge, timeout time.Duration) {
	t.Helper()
	buf := make([]byte, 1)
	deadline := time.After(timeout)
	for {
		n, _ := b.sigR.f.Read(buf)
		if n > 0 {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for signal pipe wakeup")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestBridgeFeedsOutputIntoEmulator(t *testing.T) {
	b := spawnBridge(t, "printf hi; sleep 5")
	waitForWake(t, b, 2*time.Second)

	snap := b.Capture(true)
	var text string
	for _, row := range snap.Lines {
		for _, c := range row.Cells {
			text += c.Text
		}
	}
	assert.Contains(t, text, "hi")
}

func TestBridgeStopJoinsReaderAndClosesMaster(t *testing.T) {
	p, err := ptysvc.Spawn("/bin/sh", []string{"-c", "sleep 5"}, 24, 80, nil)
	require.NoError(t, err)
	vt := vt10x.New(vt10x.WithSize(80, 24), vt10x.WithWriter(p.Master))
	b, err := New(vt, p)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		b.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return")
	}

	_, err = p.Master.Write([]byte{0})
	assert.Error(t, err, "master should be closed after Stop")
}

func TestBridgeResizeUpdatesEmulatorDimensions(t *testing.T) {
	b := spawnBridge(t, "sleep 5")
	require.NoError(t, b.Resize(40, 120))

	snap := b.Capture(true)
	assert.Equal(t, 120, snap.Cols)
	assert.Equal(t, 40, snap.RowCount)
}

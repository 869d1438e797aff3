package ptysvc

import (
	"bufio"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnEchoAndReap(t *testing.T) {
	p, err := Spawn("/bin/sh", []string{"-c", "echo hello; exit 0"}, 24, 80, nil)
	require.NoError(t, err)
	require.Greater(t, p.PID(), 0)

	r := bufio.NewReader(p.Master)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "hello")

	done := make(chan error, 1)
	go func() {
		_, err := p.Wait()
		done <- err
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("child did not exit")
	}

	require.NoError(t, p.CloseMaster())
}

func TestResize(t *testing.T) {
	p, err := Spawn("/bin/sh", []string{"-c", "sleep 1"}, 24, 80, nil)
	require.NoError(t, err)
	defer func() {
		p.SendHUP()
		p.Wait()
		p.CloseMaster()
	}()

	require.NoError(t, p.Resize(40, 120))
}

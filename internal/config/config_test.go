package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().StateDir, cfg.StateDir)
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prise.yaml")
	require.NoError(t, os.WriteFile(path, []byte("socket_path: /tmp/custom.sock\nexit_on_idle: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.sock", cfg.SocketPath)
	assert.True(t, cfg.ExitOnIdle)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prise.yaml")
	require.NoError(t, os.WriteFile(path, []byte("exit_on_idle: false\n"), 0o644))

	reloaded := make(chan Config, 1)
	w, err := Watch(path, func(c Config) { reloaded <- c })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("exit_on_idle: true\n"), 0o644))

	select {
	case c := <-reloaded:
		assert.True(t, c.ExitOnIdle)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not observe the write")
	}
}

// Package ptysvc owns PTY creation, resize, and teardown: fork/exec a
// child under a pseudo-terminal, publish its master fd and PID, and let
// the caller (the emulator bridge's reader thread, §4.4) control exactly
// when the child is signalled, reaped, and the master closed.
package ptysvc

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// PTY is one spawned child process and the master side of its terminal.
// Exclusively owned by the session that created it; callers serialize
// access themselves (the emulator bridge's session mutex covers it).
type PTY struct {
	Master *os.File
	cmd    *exec.Cmd
	pid    int
}

// DefaultShell returns the user's login shell, falling back to /bin/sh.
func DefaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

// Spawn forks and execs command under a new PTY sized rows x cols. The
// slave becomes the child's controlling terminal and stdio.
func Spawn(command string, args []string, rows, cols uint16, extraEnv []string) (*PTY, error) {
	cmd := exec.Command(command, args...)
	cmd.Env = append(os.Environ(), extraEnv...)

	master, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return nil, fmt.Errorf("pty.StartWithSize: %w", err)
	}

	return &PTY{
		Master: master,
		cmd:    cmd,
		pid:    cmd.Process.Pid,
	}, nil
}

// PID returns the child's process ID.
func (p *PTY) PID() int {
	return p.pid
}

// Resize updates the PTY window size via the OS ioctl.
func (p *PTY) Resize(rows, cols uint16) error {
	return pty.Setsize(p.Master, &pty.Winsize{Rows: rows, Cols: cols})
}

// SendHUP signals the child's process group, which on a Setsid'd PTY child
// equals its own PID. Safe to call once the process may already be gone.
func (p *PTY) SendHUP() {
	p.signal(unix.SIGHUP)
}

// Kill escalates to SIGKILL; used when a child ignores SIGHUP past a grace
// period.
func (p *PTY) Kill() {
	p.signal(unix.SIGKILL)
}

func (p *PTY) signal(sig syscall.Signal) {
	pgid, err := syscall.Getpgid(p.pid)
	if err == nil && pgid > 0 {
		syscall.Kill(-pgid, sig)
		return
	}
	syscall.Kill(p.pid, sig)
}

// Wait blocks for the child to exit and reaps it. Called by the reader
// thread once its read loop observes EOF/error on the master, per §4.4.
func (p *PTY) Wait() (*os.ProcessState, error) {
	err := p.cmd.Wait()
	return p.cmd.ProcessState, err
}

// CloseMaster closes the master fd. Called once the reader thread has
// fully exited, so no read is ever in flight against a closed fd.
func (p *PTY) CloseMaster() error {
	return p.Master.Close()
}

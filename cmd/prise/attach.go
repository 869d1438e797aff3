package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func attachCmd(sock *string) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <session-id>",
		Short: "attach the local terminal to a session (detach: Ctrl-])",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return err
			}
			return doAttach(*sock, id)
		},
	}
}

// doAttach puts the local terminal into raw mode, attaches to id, and
// streams redraw notifications to stdout while forwarding stdin bytes to
// the session's PTY, until the user presses Ctrl-] or the connection
// closes.
func doAttach(sock string, id uint64) error {
	c, err := dial(sock)
	if err != nil {
		return err
	}

	if _, err := c.Call("attach_pty", []interface{}{id}); err != nil {
		c.Close()
		return fmt.Errorf("attach: %w", err)
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		c.Close()
		return fmt.Errorf("raw mode: %w", err)
	}
	restore := func() { term.Restore(fd, oldState) }

	fmt.Fprintf(os.Stdout, "\r\nattached to session %d (detach: Ctrl-])\r\n", id)

	done := make(chan struct{}, 1)
	signalDone := func() {
		select {
		case done <- struct{}{}:
		default:
		}
	}

	renderer := newScreenRenderer()

	// Goroutine 1: decode redraw notifications and write them to stdout.
	go func() {
		for {
			n, err := c.NextNotification()
			if err != nil {
				signalDone()
				return
			}
			if n.Method != "redraw" {
				continue
			}
			if out := renderer.Apply(n.Params); out != nil {
				os.Stdout.Write(out)
			}
		}
	}()

	// Goroutine 2: read stdin, watch for Ctrl-] (0x1D), forward everything
	// else as write_pty.
	go func() {
		buf := make([]byte, 256)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				chunk := buf[:n]
				if idx := indexByte(chunk, 0x1d); idx >= 0 {
					if idx > 0 {
						c.Notify("write_pty", []interface{}{id, chunk[:idx]})
					}
					signalDone()
					return
				}
				if err := c.Notify("write_pty", []interface{}{id, chunk}); err != nil {
					signalDone()
					return
				}
			}
			if err != nil {
				signalDone()
				return
			}
		}
	}()

	<-done
	restore()
	c.Close()
	fmt.Fprintf(os.Stdout, "\r\ndetached from session %d\r\n", id)
	return nil
}

func indexByte(b []byte, target byte) int {
	for i, c := range b {
		if c == target {
			return i
		}
	}
	return -1
}

// prised is the daemon: it owns every PTY session and its emulated
// screen state, and serves prise clients over a Unix domain socket.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oneopane/prise/internal/config"
	"github.com/oneopane/prise/internal/loop"
	"github.com/oneopane/prise/internal/registry"
)

func main() {
	var configPath string
	var exitOnIdle bool

	root := &cobra.Command{
		Use:   "prised",
		Short: "prise daemon — owns PTY sessions and serves attached clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if exitOnIdle {
				cfg.ExitOnIdle = true
			}
			return run(cfg)
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "path to prise.yaml")
	root.Flags().BoolVar(&exitOnIdle, "exit-on-idle", false, "stop once the last client disconnects (used by tests)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	sockPath := cfg.SocketPath
	if sockPath == "" {
		sockPath = fmt.Sprintf("/tmp/prise-%d.sock", os.Getuid())
	}

	ln, err := bind(sockPath)
	if err != nil {
		return fmt.Errorf("bind: %w", err)
	}
	defer os.Remove(sockPath)
	defer ln.Close()

	if cfg.StateDir != "" {
		if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
			log.Printf("prised: state dir: %v", err)
		}
	}

	lp := loop.New()
	reg := registry.New(lp, registry.Options{
		ExitOnIdle: cfg.ExitOnIdle,
		StateDir:   cfg.StateDir,
	})
	reg.Serve(ln)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		lp.Stop()
	}()

	log.Printf("prised listening on %s", sockPath)
	return lp.Run()
}

// bind implements the startup probe-then-unlink sequence: if the socket
// path already exists, try connecting to it first. A successful connect
// means another daemon owns it; a refused or missing-file connect means
// the path is stale and safe to remove.
func bind(path string) (net.Listener, error) {
	if _, err := os.Stat(path); err == nil {
		if probe, dialErr := net.Dial("unix", path); dialErr == nil {
			probe.Close()
			return nil, fmt.Errorf("prise: daemon already running at %s", path)
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("remove stale socket: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if l, ok := ln.(*net.UnixListener); ok {
		l.SetUnlinkOnClose(true)
	}
	return ln, nil
}

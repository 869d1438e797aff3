package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func watchCmd(sock *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "live dashboard of active sessions, refreshed every second",
		RunE: func(cmd *cobra.Command, args []string) error {
			runWatch(*sock)
			return nil
		},
	}
}

func runWatch(sock string) {
	fmt.Print("\x1b[?1049h\x1b[?25l")
	defer fmt.Print("\x1b[?25h\x1b[?1049l")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	drawWatch(sock)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			fmt.Print("\x1b[?25h\x1b[?1049l")
			os.Exit(0)
		case <-ticker.C:
			drawWatch(sock)
		}
	}
}

func drawWatch(sock string) {
	fmt.Print("\x1b[H\x1b[J")

	c, err := dial(sock)
	if err != nil {
		fmt.Printf("prised not reachable: %v\r\n", err)
		return
	}
	defer c.Close()

	result, err := c.Call("list_sessions", nil)
	if err != nil {
		fmt.Printf("prised not reachable: %v\r\n", err)
		return
	}

	fmt.Printf("prise — %s\r\n\r\n", time.Now().Format("15:04:05"))
	printSessionTable(os.Stdout, parseSessionRows(result), "\r\n")
}

// prise is the CLI front-end for prised: it sends RPC requests over the
// daemon's Unix socket and, for "attach", puts the local terminal into
// raw mode and streams redraw notifications until the user detaches.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var sockFlag string

	root := &cobra.Command{
		Use:   "prise",
		Short: "prise — terminal multiplexer client",
	}
	root.PersistentFlags().StringVar(&sockFlag, "socket", "", "path to the daemon's Unix socket (default /tmp/prise-<uid>.sock)")

	root.AddCommand(
		pingCmd(&sockFlag),
		spawnCmd(&sockFlag),
		attachCmd(&sockFlag),
		detachCmd(&sockFlag),
		resizeCmd(&sockFlag),
		listCmd(&sockFlag),
		watchCmd(&sockFlag),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

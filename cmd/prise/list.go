package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/oneopane/prise/internal/rpc"
	"github.com/spf13/cobra"
)

func listCmd(sock *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list active sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(*sock)
			if err != nil {
				return err
			}
			defer c.Close()

			result, err := c.Call("list_sessions", nil)
			if err != nil {
				return err
			}
			printSessionTable(os.Stdout, parseSessionRows(result), "\n")
			return nil
		},
	}
}

type sessionRow struct {
	id, rows, cols, clients int64
	keepAlive               bool
}

func parseSessionRows(result interface{}) []sessionRow {
	raw, _ := result.([]interface{})
	out := make([]sessionRow, 0, len(raw))
	for _, item := range raw {
		m, err := rpc.StringMap([]interface{}{item}, 0)
		if err != nil {
			continue
		}
		id, _ := toInt64(m["id"])
		rows, _ := toInt64(m["rows"])
		cols, _ := toInt64(m["cols"])
		clients, _ := toInt64(m["attached_clients"])
		keepAlive, _ := m["keep_alive"].(bool)
		out = append(out, sessionRow{id, rows, cols, clients, keepAlive})
	}
	return out
}

// printSessionTable writes one row per session; eol lets watchCmd use
// "\r\n" since it runs the terminal in alternate-screen mode without
// translating bare newlines.
func printSessionTable(w io.Writer, rows []sessionRow, eol string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "ID\tSIZE\tCLIENTS\tKEEP-ALIVE"+eol)
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%dx%d\t%d\t%v%s", r.id, r.rows, r.cols, r.clients, r.keepAlive, eol)
	}
	tw.Flush()
}

package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func resizeCmd(sock *string) *cobra.Command {
	var rows, cols int

	cmd := &cobra.Command{
		Use:   "resize <session-id>",
		Short: "resize a session's PTY and emulated screen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return err
			}
			c, err := dial(*sock)
			if err != nil {
				return err
			}
			defer c.Close()

			_, err = c.Call("resize_pty", []interface{}{id, uint16(rows), uint16(cols)})
			return err
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 24, "new row count")
	cmd.Flags().IntVar(&cols, "cols", 80, "new column count")
	return cmd
}

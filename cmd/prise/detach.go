package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func detachCmd(sock *string) *cobra.Command {
	return &cobra.Command{
		Use:   "detach <session-id>",
		Short: "detach from a session without killing it",
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

			_, err = c.Call("detach_pty", []interface{}{id})
			return err
		},
	}
}

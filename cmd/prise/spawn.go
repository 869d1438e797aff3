package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func spawnCmd(sock *string) *cobra.Command {
	var rows, cols int

	cmd := &cobra.Command{
		Use:   "spawn",
		Short: "start a new PTY session and print its id",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(*sock)
			if err != nil {
				return err
			}
			defer c.Close()

			result, err := c.Call("spawn_pty", []interface{}{uint16(rows), uint16(cols)})
			if err != nil {
				return err
			}
			fmt.Println(result)
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 24, "initial row count")
	cmd.Flags().IntVar(&cols, "cols", 80, "initial column count")
	return cmd
}

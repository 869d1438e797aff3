package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func pingCmd(sock *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "check that prised is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(*sock)
			if err != nil {
				return err
			}
			defer c.Close()

			result, err := c.Call("ping", nil)
			if err != nil {
				return err
			}
			fmt.Println(result)
			return nil
		},
	}
}

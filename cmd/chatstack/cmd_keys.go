package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chatstack/chatstack/pkg/config"
)

func newCmdKeys() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the keys accepted by --set and the stack-config input",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, key := range config.Keys() {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
		},
	}
}

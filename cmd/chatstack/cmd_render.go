package main

import (
	"github.com/spf13/cobra"

	"github.com/chatstack/chatstack/internal/k8s"
	"github.com/chatstack/chatstack/pkg/function"
)

func newCmdRender(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Print the synthesized resources as YAML, in readiness order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			syn, err := opts.synthesize(cmd.Context(), Inputs{}, k8s.ProviderFromEnv)
			if err != nil {
				return err
			}
			return function.WriteManifest(cmd.OutOrStdout(), syn.Stack.Objects())
		},
	}
}

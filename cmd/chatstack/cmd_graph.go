package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chatstack/chatstack/internal/k8s"
)

func newCmdGraph(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the components with their readiness groups, dependencies and resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			syn, err := opts.synthesize(cmd.Context(), Inputs{}, k8s.ProviderFromEnv)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, node := range syn.Stack.Graph() {
				fmt.Fprintf(w, "[%d] %s\n", node.ReadinessGroup, node.URN)
				if node.Parent != "" {
					fmt.Fprintf(w, "    parent: %s\n", node.Parent)
				}
				if len(node.DependsOn) > 0 {
					fmt.Fprintf(w, "    dependsOn: %s\n", strings.Join(node.DependsOn, ", "))
				}
				for _, res := range node.Resources {
					fmt.Fprintf(w, "    - %s %s\n", res.Ref, res.ID)
				}
			}
			return nil
		},
	}
}

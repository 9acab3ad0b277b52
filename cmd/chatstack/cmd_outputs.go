package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chatstack/chatstack/internal/component"
	"github.com/chatstack/chatstack/internal/k8s"
)

func newCmdOutputs(opts *rootOptions) *cobra.Command {
	var showSecrets bool
	cmd := &cobra.Command{
		Use:   "outputs",
		Short: "Print the stack exports followed by every component output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			syn, err := opts.synthesize(cmd.Context(), Inputs{}, k8s.ProviderFromEnv)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "OWNER\tNAME\tVALUE")
			writeOutputs := func(owner string, outs component.Outputs) {
				for _, out := range outs {
					value := out.Value
					if out.Secret && !showSecrets {
						value = "[secret]"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", owner, out.Name, value)
				}
			}
			writeOutputs(syn.Stack.Name, syn.Stack.Exports())
			for _, c := range syn.Stack.Components() {
				writeOutputs(c.URN, c.Outputs())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print secret output values instead of masking them")
	return cmd
}

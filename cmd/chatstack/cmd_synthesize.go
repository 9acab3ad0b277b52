package main

import (
	"time"

	"github.com/spf13/cobra"

	apiv1 "github.com/chatstack/chatstack/api/v1"
	"github.com/chatstack/chatstack/internal/k8s"
	"github.com/chatstack/chatstack/pkg/function"
)

func newCmdSynthesize(opts *rootOptions) *cobra.Command {
	var (
		inputFile         string
		reconcileInterval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Run as a KRM function: read a ResourceList from stdin and write the synthesized ResourceList to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				ir  *function.InputReader
				err error
			)
			if inputFile != "" {
				ir, err = function.NewManifestInputReader(inputFile)
			} else {
				ir, err = function.NewInputReader(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			runOpts := []function.RunOption{function.WithManagedBy(apiv1.ManagedByValue)}
			if reconcileInterval > 0 {
				runOpts = append(runOpts, function.WithReconcileInterval(reconcileInterval))
			}
			return function.Run(cmd.Context(), opts.synthFunc(k8s.ProviderFromEnv), ir, cmd.OutOrStdout(), runOpts...)
		},
	}
	cmd.Flags().StringVarP(&inputFile, "input-file", "f", "", "Read input resources from a YAML manifest instead of stdin")
	cmd.Flags().DurationVar(&reconcileInterval, "reconcile-interval", 0, "Ask the reconciler to re-apply the resources at this interval")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/chatstack/chatstack/internal/logging"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:     "chatstack",
		Short:   "Synthesize the chat application topology",
		Long:    "Synthesize the chat application topology (namespace, MongoDB replica set, backend and frontend) as Kubernetes resources.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.addFlags(cmd.PersistentFlags())

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		logger, err := logging.NewProcessLogger(opts.debug, version)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		c.SetContext(logr.NewContext(c.Context(), logger))
		return nil
	}

	cmd.PersistentPostRunE = func(c *cobra.Command, _ []string) error {
		if opts.metricsFile == "" {
			return nil
		}
		if err := prometheus.WriteToTextfile(opts.metricsFile, metrics.Registry); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
		logr.FromContextOrDiscard(c.Context()).V(1).Info("wrote metrics", "path", opts.metricsFile)
		return nil
	}

	cmd.AddCommand(newCmdSynthesize(opts))
	cmd.AddCommand(newCmdRender(opts))
	cmd.AddCommand(newCmdOutputs(opts))
	cmd.AddCommand(newCmdGraph(opts))
	cmd.AddCommand(newCmdKeys())
	return cmd
}

func main() {
	root := newRootCmd()
	root.SetContext(context.Background())
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

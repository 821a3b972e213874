package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"cpuburn/internal/launcher"
	"cpuburn/internal/worker"

	"github.com/spf13/cobra"
)

// newWorkerCmd is the re-exec target used by the launcher for each child.
func newWorkerCmd() *cobra.Command {
	var inv worker.Invocation

	cmd := &cobra.Command{
		Use:    launcher.WorkerCommand,
		Short:  "Run a single counting worker (used by the launcher)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := inv.Validate(); err != nil {
				return err
			}
			return runWorker(cmd.Context(), cmd.OutOrStdout(), inv)
		},
	}
	worker.BindFlags(cmd.Flags(), &inv)

	return cmd
}

// runWorker counts until SIGINT or SIGTERM arrives. A signal is a normal
// way for a worker to end and is not reported as an error.
func runWorker(parent context.Context, w io.Writer, inv worker.Invocation) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err := worker.Run(ctx, w, inv)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

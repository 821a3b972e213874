package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cpuburn/internal/config"
	"cpuburn/internal/launcher"
	"cpuburn/internal/logging"

	"github.com/spf13/cobra"
)

var (
	configFile string
	cfg        = config.Default()
	closeLog   = func() error { return nil }

	rootCmd = &cobra.Command{
		Use:   "cpuburn",
		Short: "Launch CPU-bound counting workers",
		Long: `Starts two counting workers ("Task 3" and "Task 4") as separate OS
processes and waits for them. Workers never finish on their own; stop the
launcher with Ctrl+C to terminate them.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE:              runLauncher,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default ./"+config.ConfigFileName+")")
	rootCmd.AddCommand(newWorkerCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newVariantsCmd())
}

func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the command tree and closes the log opened by setup,
// whether or not the command failed.
func ExecuteContext(ctx context.Context) error {
	defer func() {
		_ = closeLog()
		closeLog = func() error { return nil }
	}()
	return rootCmd.ExecuteContext(ctx)
}

// setup loads the config and initialises logging for every subcommand.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configFile)
	if err != nil {
		return err
	}
	cfg = loaded

	lvl, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	w, closeFn, err := cfg.OpenLog()
	if err != nil {
		return err
	}
	closeLog = closeFn
	logging.Init(w, lvl, map[string]interface{}{
		"pid": os.Getpid(),
		"cmd": cmd.Name(),
	})
	if p := cfg.Path(); p != "" {
		logging.Debug("config.loaded", map[string]interface{}{"path": p})
	}
	return nil
}

func runLauncher(cmd *cobra.Command, args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := launcher.New(exe,
		launcher.WithConfigPath(cfg.Path()),
		launcher.WithStdout(cmd.OutOrStdout()),
		launcher.WithStopGrace(cfg.StopGrace),
	)
	if err := l.Start(ctx, launcher.DefaultInvocations()); err != nil {
		return err
	}

	for _, e := range l.Wait() {
		if e.Err != nil && ctx.Err() == nil {
			logging.Warn("launcher.worker_failed", map[string]interface{}{
				"name":      e.Name,
				"exit_code": e.ExitCode,
				"error":     e.Err.Error(),
			})
		}
	}
	return nil
}

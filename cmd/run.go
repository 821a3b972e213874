package cmd

import (
	"fmt"
	"os"

	"cpuburn/internal/worker"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// newRunCmd runs one worker in the foreground, without the launcher.
func newRunCmd() *cobra.Command {
	var (
		name    string
		delay   float64
		variant string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one counting worker in the foreground",
		Long: `Runs a single worker in this process. When --variant is omitted and
stdin is a terminal, the variant is chosen from an interactive menu.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if variant == "" {
				v, err := pickVariant()
				if err != nil {
					return err
				}
				variant = v
			}
			inv := worker.Invocation{Name: name, Delay: delay, Variant: variant}
			if err := inv.Validate(); err != nil {
				return err
			}
			return runWorker(cmd.Context(), cmd.OutOrStdout(), inv)
		},
	}

	cmd.Flags().StringVar(&name, "name", "Task 3", "Display name printed in every status line")
	cmd.Flags().Float64Var(&delay, "delay", 0.3, "Delay value (accepted, not used to pause)")
	cmd.Flags().StringVar(&variant, "variant", "", "Message variant (gcp, cloud, datacenter)")

	return cmd
}

func pickVariant() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return worker.DefaultVariant, nil
	}

	vs := worker.Variants()
	items := make([]string, len(vs))
	for i, v := range vs {
		items[i] = fmt.Sprintf("%s: %s", v.ID, v.Startup)
	}

	prompt := promptui.Select{
		Label: "Select a worker variant",
		Items: items,
		Size:  len(items),
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("variant selection cancelled: %w", err)
	}
	return vs[idx].ID, nil
}

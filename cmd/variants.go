package cmd

import (
	"fmt"
	"text/tabwriter"

	"cpuburn/internal/worker"

	"github.com/spf13/cobra"
)

func newVariantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List worker message variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTARTUP\tPROGRESS")
			for _, v := range worker.Variants() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", v.ID, v.Startup, v.Progress)
			}
			return tw.Flush()
		},
	}
}

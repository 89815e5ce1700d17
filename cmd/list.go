package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured executables, files and thread counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Executables (%s backend):\n", cfg.Backend)
			for _, e := range cfg.Executables {
				fmt.Fprintf(out, "  - %s\n", e)
			}
			fmt.Fprintln(out, "\nFiles:")
			for _, f := range cfg.Files {
				fmt.Fprintf(out, "  - %s\n", f)
			}
			fmt.Fprintf(out, "\nThreads: %v\n", cfg.Threads)
			plan := cfg.Plan()
			fmt.Fprintf(out, "Layout: one series per %s, x = %s, fixed %s\n", plan.Series, plan.X, plan.Fixed())
			fmt.Fprintf(out, "Trials: %d (timeout %s each)\n", plan.TrialCount(), plan.Timeout)
			return nil
		},
	}
}

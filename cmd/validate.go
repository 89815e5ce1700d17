package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config and that executables and input files exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			var problems []error
			if cfg.Backend == "process" {
				for _, e := range cfg.Executables {
					if err := checkExecutable(e); err != nil {
						problems = append(problems, err)
					}
				}
			}
			for _, f := range cfg.Files {
				if _, err := os.Stat(f); err != nil {
					problems = append(problems, fmt.Errorf("input file: %w", err))
				}
			}
			if len(cfg.Executables) == 0 || len(cfg.Files) == 0 || len(cfg.Threads) == 0 {
				fmt.Fprintln(out, "warning: the sweep is empty and will produce no series")
			}
			for _, p := range problems {
				fmt.Fprintf(out, "  ERROR: %v\n", p)
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d problem(s) found", len(problems))
			}
			fmt.Fprintf(out, "OK: %d trials\n", cfg.Plan().TrialCount())
			return nil
		},
	}
}

// checkExecutable resolves bare names through PATH and checks that paths
// point at an executable file.
func checkExecutable(name string) error {
	if !strings.ContainsRune(name, os.PathSeparator) {
		if _, err := exec.LookPath(name); err != nil {
			return fmt.Errorf("executable %s: %w", name, err)
		}
		return nil
	}
	info, err := os.Stat(name)
	if err != nil {
		return fmt.Errorf("executable: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("executable %s: is a directory", name)
	}
	if info.Mode()&0o111 == 0 {
		return fmt.Errorf("executable %s: not executable", name)
	}
	return nil
}

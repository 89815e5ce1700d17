package cmd

import (
	"errors"
	"io/fs"

	"github.com/signalnine/sweepbench/internal/config"
	"github.com/spf13/cobra"
)

var cfgFile string

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sweepbench",
		Short:        "Time a solver across input files and thread counts and chart the results",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "sweepbench.yaml", "config file path")
	root.AddCommand(newRunCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newValidateCmd())
	return root
}

// loadConfig reads the config file. A missing default config file is not an
// error, so that a sweep can be described entirely by flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err == nil {
		return cfg, nil
	}
	if f := cmd.Flag("config"); f != nil && !f.Changed && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return nil, err
}

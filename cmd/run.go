package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/signalnine/sweepbench/internal/chart"
	"github.com/signalnine/sweepbench/internal/config"
	"github.com/signalnine/sweepbench/internal/docker"
	"github.com/signalnine/sweepbench/internal/metrics"
	"github.com/signalnine/sweepbench/internal/report"
	"github.com/signalnine/sweepbench/internal/runner"
	"github.com/signalnine/sweepbench/internal/sweep"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"
)

var (
	flagFiles       []string
	flagThreads     []int
	flagExecutables []string
	flagTimeout     float64
	flagLayout      string
	flagCleanup     string
	flagMeasure     string
	flagOutput      string
	flagFormat      string
	flagNoChart     bool
	flagMetricsAddr string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a benchmark sweep and render the chart",
		RunE:  runSweep,
	}
	cmd.Flags().StringArrayVar(&flagFiles, "file", nil, "input file (repeatable, replaces the configured files)")
	cmd.Flags().IntSliceVar(&flagThreads, "threads", nil, "thread counts, e.g. 1,2,4,8")
	cmd.Flags().StringArrayVar(&flagExecutables, "executable", nil, "solver executable or image (repeatable)")
	cmd.Flags().Float64Var(&flagTimeout, "timeout", 0, "per-trial timeout in seconds")
	cmd.Flags().StringVar(&flagLayout, "layout", "", "series and x dimensions as series:x, e.g. file:threads")
	cmd.Flags().StringVar(&flagCleanup, "cleanup", "", "cleanup after a timeout (group, name, none)")
	cmd.Flags().StringVar(&flagMeasure, "measure", "", "y value source (output, wallclock)")
	cmd.Flags().StringVar(&flagOutput, "output", "", "chart file; the extension picks the format")
	cmd.Flags().StringVar(&flagFormat, "format", "table", "results format (table, markdown, json)")
	cmd.Flags().BoolVar(&flagNoChart, "no-chart", false, "skip rendering the chart")
	cmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the sweep")
	return cmd
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyOverrides(cmd, cfg); err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := report.CheckFormat(flagFormat); err != nil {
		return err
	}

	inv, err := newInvoker(cfg)
	if err != nil {
		return err
	}
	rec := metrics.New()
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: rec.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("warning: metrics server: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		fmt.Printf("Serving metrics on %s/metrics\n", cfg.Metrics.Addr)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	plan := cfg.Plan()
	fmt.Printf("Running %d trials (timeout %s each)...\n", plan.TrialCount(), plan.Timeout)
	agg := &sweep.Aggregator{
		Invoker:  inv,
		Progress: &sweep.Progress{W: os.Stdout, ShowExecutable: len(cfg.Executables) > 1},
		Metrics:  rec,
	}
	res, err := agg.Run(ctx, plan)
	if err != nil {
		return err
	}
	res.Title = cfg.Chart.Title
	res.XLabel = cfg.Chart.XLabel
	res.YLabel = cfg.Chart.YLabel

	fmt.Println("\n--- Results ---")
	if err := report.Generate(res, flagFormat, os.Stdout); err != nil {
		return err
	}
	if flagNoChart {
		return nil
	}
	if err := chart.Render(res, chart.Options{
		Output: cfg.Chart.Output,
		Width:  vg.Length(cfg.Chart.WidthIn) * vg.Inch,
		Height: vg.Length(cfg.Chart.HeightIn) * vg.Inch,
	}); err != nil {
		return err
	}
	fmt.Printf("Chart written to %s\n", cfg.Chart.Output)
	return nil
}

// applyOverrides copies explicitly set flags over the loaded config.
func applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("file") {
		cfg.Files = flagFiles
	}
	if flags.Changed("threads") {
		cfg.Threads = flagThreads
		cfg.ThreadRange = nil
	}
	if flags.Changed("executable") {
		cfg.Executables = flagExecutables
	}
	if flags.Changed("timeout") {
		if flagTimeout <= 0 {
			return fmt.Errorf("--timeout must be positive")
		}
		cfg.TimeoutSeconds = flagTimeout
	}
	if flags.Changed("layout") {
		layout, err := parseLayout(flagLayout)
		if err != nil {
			return err
		}
		cfg.Layout = layout
	}
	if flags.Changed("cleanup") {
		cfg.Cleanup = flagCleanup
	}
	if flags.Changed("measure") {
		cfg.Measure = flagMeasure
	}
	if flags.Changed("output") {
		cfg.Chart.Output = flagOutput
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = flagMetricsAddr
	}
	return nil
}

func parseLayout(s string) (config.Layout, error) {
	series, x, ok := strings.Cut(s, ":")
	if !ok {
		return config.Layout{}, fmt.Errorf("layout %q: want series:x", s)
	}
	if _, err := sweep.ParseDimension(series); err != nil {
		return config.Layout{}, fmt.Errorf("layout %q: %w", s, err)
	}
	if _, err := sweep.ParseDimension(x); err != nil {
		return config.Layout{}, fmt.Errorf("layout %q: %w", s, err)
	}
	return config.Layout{Series: series, X: x}, nil
}

func newInvoker(cfg *config.Config) (runner.Invoker, error) {
	switch cfg.Backend {
	case "docker":
		return &docker.Invoker{CPULimit: cfg.Docker.CPULimit, MemoryLimit: cfg.Docker.MemoryLimit}, nil
	default:
		cleaner, err := runner.NewCleaner(cfg.Cleanup)
		if err != nil {
			return nil, err
		}
		return &runner.ProcessInvoker{Cleaner: cleaner, Stderr: os.Stderr}, nil
	}
}

package config_test

import (
	"testing"
	"time"

	"github.com/signalnine/sweepbench/internal/config"
	"github.com/signalnine/sweepbench/internal/sweep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMinimal(t *testing.T) {
	cfg, err := config.Load("../../testdata/minimal.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"./kuduro-omp"}, cfg.Executables)
	assert.Len(t, cfg.Files, 2)
	assert.Equal(t, []int{1, 2, 4, 8}, cfg.Threads, "thread counts are swept ascending")
	assert.Equal(t, "process", cfg.Backend)
	assert.Equal(t, 60*time.Second, cfg.Timeout())
	assert.Equal(t, "group", cfg.Cleanup)
	assert.Equal(t, "output", cfg.Measure)
	assert.Equal(t, "file", cfg.Layout.Series)
	assert.Equal(t, "threads", cfg.Layout.X)
	assert.Equal(t, "chart.png", cfg.Chart.Output)
	assert.Equal(t, "Thread Count", cfg.Chart.XLabel)
	assert.Equal(t, "Execution Time (s)", cfg.Chart.YLabel)
}

func TestLoadFull(t *testing.T) {
	cfg, err := config.Load("../../testdata/full.yaml")
	require.NoError(t, err)
	assert.Len(t, cfg.Executables, 2)
	assert.Equal(t, "name", cfg.Cleanup)
	assert.Equal(t, "Kuduro - Serial vs OpenMP 4 Threads", cfg.Chart.Title)
	assert.Equal(t, 10.0, cfg.Chart.WidthIn)
	assert.Equal(t, ":9109", cfg.Metrics.Addr)

	plan := cfg.Plan()
	assert.Equal(t, sweep.Executable, plan.Series)
	assert.Equal(t, sweep.File, plan.X)
	assert.Equal(t, sweep.Threads, plan.Fixed())
	assert.Equal(t, 8, plan.TrialCount())
}

func TestLoadThreadRange(t *testing.T) {
	cfg, err := config.Load("../../testdata/range.yaml")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, cfg.Threads)
	assert.Equal(t, 3*time.Second, cfg.Timeout())
	assert.Equal(t, "File", cfg.Chart.XLabel)
}

func TestLoadMissing(t *testing.T) {
	_, err := config.Load("nonexistent.yaml")
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	_, err := config.Load("../../testdata/invalid.yaml")
	assert.Error(t, err)
}

func TestLoadConflictingLayout(t *testing.T) {
	// Two executables cannot share a file x threads chart.
	_, err := config.Load("../../testdata/conflict.yaml")
	assert.ErrorContains(t, err, "fixed dimension")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{"empty is valid", config.Config{}, false},
		{"negative threads", config.Config{Threads: []int{-1}}, true},
		{"bad range", config.Config{ThreadRange: &config.ThreadRange{From: 4, To: 1}}, true},
		{"range and list", config.Config{Threads: []int{1}, ThreadRange: &config.ThreadRange{From: 1, To: 2}}, true},
		{"bad backend", config.Config{Backend: "ssh"}, true},
		{"bad cleanup", config.Config{Cleanup: "all"}, true},
		{"bad measure", config.Config{Measure: "cpu"}, true},
		{"negative timeout", config.Config{TimeoutSeconds: -1}, true},
		{"same layout axes", config.Config{Layout: config.Layout{Series: "file", X: "file"}}, true},
		{"blank executable", config.Config{Executables: []string{" "}}, true},
		{"docker backend", config.Config{Backend: "docker", Executables: []string{"kuduro:omp"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := config.Validate(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, 60*time.Second, cfg.Timeout())
	assert.Equal(t, "Thread Count / Execution Time", cfg.Chart.Title)
	assert.NoError(t, config.Validate(cfg))
}

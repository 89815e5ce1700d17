package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/signalnine/sweepbench/internal/config"
	"github.com/signalnine/sweepbench/internal/docker"
	"github.com/signalnine/sweepbench/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLayout(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    config.Layout
		wantErr bool
	}{
		{"file by threads", "file:threads", config.Layout{Series: "file", X: "threads"}, false},
		{"executable by file", "executable:file", config.Layout{Series: "executable", X: "file"}, false},
		{"missing colon", "file", config.Layout{}, true},
		{"unknown series", "solver:threads", config.Layout{}, true},
		{"unknown x", "file:cores", config.Layout{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLayout(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyOverrides(t *testing.T) {
	root := NewRootCmd()
	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	require.NoError(t, run.ParseFlags([]string{
		"--file", "a.txt", "--file", "b.txt",
		"--threads", "3,1,2",
		"--timeout", "2.5",
		"--layout", "threads:file",
	}))

	cfg := &config.Config{
		Files:       []string{"old.txt"},
		ThreadRange: &config.ThreadRange{From: 1, To: 8},
		Executables: []string{"./kuduro-omp"},
	}
	require.NoError(t, applyOverrides(run, cfg))
	require.NoError(t, config.Validate(cfg))
	assert.Equal(t, []string{"a.txt", "b.txt"}, cfg.Files)
	assert.Equal(t, []int{1, 2, 3}, cfg.Threads)
	assert.Equal(t, 2.5, cfg.TimeoutSeconds)
	assert.Equal(t, config.Layout{Series: "threads", X: "file"}, cfg.Layout)
	assert.Equal(t, []string{"./kuduro-omp"}, cfg.Executables, "unset flags leave the config alone")
}

func TestNewInvoker(t *testing.T) {
	inv, err := newInvoker(&config.Config{Backend: "process", Cleanup: "name"})
	require.NoError(t, err)
	pi, ok := inv.(*runner.ProcessInvoker)
	require.True(t, ok)
	assert.Equal(t, runner.NameCleaner{}, pi.Cleaner)

	inv, err = newInvoker(&config.Config{Backend: "docker", Docker: config.Docker{CPULimit: 2}})
	require.NoError(t, err)
	assert.Equal(t, &docker.Invoker{CPULimit: 2}, inv)

	_, err = newInvoker(&config.Config{Backend: "process", Cleanup: "everything"})
	assert.Error(t, err)
}

func TestCheckExecutable(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "solver")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755))
	plain := filepath.Join(dir, "data.txt")
	require.NoError(t, os.WriteFile(plain, []byte("1"), 0o644))

	assert.NoError(t, checkExecutable(exe))
	assert.NoError(t, checkExecutable("sh"))
	assert.Error(t, checkExecutable(plain))
	assert.Error(t, checkExecutable(dir))
	assert.Error(t, checkExecutable(filepath.Join(dir, "missing")))
	assert.Error(t, checkExecutable("sweepbench-no-such-solver"))
}

func TestRunCommandEndToEnd(t *testing.T) {
	dir := t.TempDir()
	solver := filepath.Join(dir, "solver.sh")
	require.NoError(t, os.WriteFile(solver, []byte("#!/bin/sh\necho \"solving $1\"\necho 0.$2\n"), 0o755))
	out := filepath.Join(dir, "chart.svg")

	root := NewRootCmd()
	root.SetArgs([]string{
		"run",
		"--config", filepath.Join(dir, "absent.yaml"),
		"--executable", solver,
		"--file", "a.txt",
		"--threads", "1,2",
		"--timeout", "5",
		"--output", out,
	})
	// An explicit --config that does not exist is an error.
	assert.Error(t, root.Execute())

	root = NewRootCmd()
	root.SetArgs([]string{
		"run",
		"--executable", solver,
		"--file", "a.txt",
		"--threads", "1,2",
		"--timeout", "5",
		"--output", out,
	})
	t.Chdir(dir)
	require.NoError(t, root.Execute())
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestListCommand(t *testing.T) {
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"list", "--config", "../testdata/full.yaml"})
	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "./kuduro-serial")
	assert.Contains(t, buf.String(), "Trials: 8")
}

func TestValidateCommandReportsMissingFiles(t *testing.T) {
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"validate", "--config", "../testdata/minimal.yaml"})
	assert.Error(t, root.Execute())
	assert.Contains(t, buf.String(), "ERROR")
}

func TestRunRejectsUnknownFormatBeforeSweep(t *testing.T) {
	dir := t.TempDir()
	calls := filepath.Join(dir, "calls")
	solver := filepath.Join(dir, "solver.sh")
	script := "#!/bin/sh\necho run >> " + calls + "\necho 0.$2\n"
	require.NoError(t, os.WriteFile(solver, []byte(script), 0o755))
	out := filepath.Join(dir, "chart.png")

	root := NewRootCmd()
	root.SetArgs([]string{
		"run",
		"--executable", solver,
		"--file", "a.txt",
		"--threads", "1,2,3",
		"--format", "bogus",
		"--output", out,
	})
	t.Chdir(dir)
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown report format "bogus"`)

	_, err = os.Stat(calls)
	assert.True(t, os.IsNotExist(err), "solver ran before the format was checked")
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/signalnine/sweepbench/internal/result"
)

const defaultWaitDelay = 5 * time.Second

// Invoker runs one trial under a deadline. A deadline overrun is reported
// as a timed-out sample; every other failure is returned as an error.
type Invoker interface {
	Invoke(ctx context.Context, trial result.Trial, timeout time.Duration) (*result.Sample, error)
}

// ProcessInvoker runs the solver as a local child process in its own
// process group.
type ProcessInvoker struct {
	Cleaner Cleaner
	// Stderr receives the solver's standard error. Nil discards it.
	Stderr io.Writer
	// WaitDelay bounds the wait for output pipes once the process is gone.
	WaitDelay time.Duration
}

// BuildCommand returns the argv for a trial: <executable> <file> <threads>.
func BuildCommand(t result.Trial) []string {
	return []string{t.Executable, t.File, strconv.Itoa(t.Threads)}
}

func (p *ProcessInvoker) Invoke(ctx context.Context, trial result.Trial, timeout time.Duration) (*result.Sample, error) {
	trialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	argv := BuildCommand(trial)
	cmd := exec.CommandContext(trialCtx, argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = p.Stderr
	cmd.WaitDelay = p.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = defaultWaitDelay
	}

	// Cancel runs at most once, and Wait does not return before it has.
	timedOut, cleaned := false, false
	cmd.Cancel = func() error {
		pid := cmd.Process.Pid
		if ctx.Err() == nil {
			timedOut = true
			if runsCleanup(p.Cleaner) {
				cleaned = true
				if err := p.Cleaner.Cleanup(context.Background(), Process{Executable: trial.Executable, Pid: pid}); err != nil {
					log.Printf("warning: cleanup after timeout of %s: %v", trial.Executable, err)
				}
			}
		}
		return killGroup(pid)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", trial.Executable, err)
	}
	waitErr := cmd.Wait()
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		return nil, fmt.Errorf("running %s on %s: %w", trial.Executable, trial.File, ctx.Err())
	}
	if timedOut {
		return &result.Sample{Trial: trial, TimedOut: true, CleanedUp: cleaned, Elapsed: elapsed}, nil
	}
	if waitErr != nil && !ignorableWaitErr(waitErr) {
		return nil, fmt.Errorf("waiting for %s: %w", trial.Executable, waitErr)
	}
	return &result.Sample{Trial: trial, Value: LastLine(stdout.Bytes()), Elapsed: elapsed}, nil
}

func runsCleanup(c Cleaner) bool {
	if c == nil {
		return false
	}
	_, nop := c.(nopCleaner)
	return !nop
}

// The exit status of a solver is not part of its contract.
func ignorableWaitErr(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) || errors.Is(err, exec.ErrWaitDelay)
}

// LastLine returns the final line of out without its line terminator.
// Empty output yields the empty string.
func LastLine(out []byte) string {
	s := strings.TrimSuffix(string(out), "\n")
	s = strings.TrimSuffix(s, "\r")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return s
}

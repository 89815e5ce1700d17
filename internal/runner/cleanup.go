package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Process identifies a solver process that overran its deadline.
type Process struct {
	Executable string
	Pid        int
}

// Cleaner removes whatever a timed-out trial left behind. It is called
// exactly once per timeout, before the next trial starts.
type Cleaner interface {
	Cleanup(ctx context.Context, proc Process) error
}

// GroupCleaner kills the process group the invoker started, and nothing else.
type GroupCleaner struct{}

func (GroupCleaner) Cleanup(ctx context.Context, proc Process) error {
	return killGroup(proc.Pid)
}

// commLen is how much of a process name the kernel keeps, which is all
// pkill -x can match against.
const commLen = 15

// NameCleaner kills every process on the system whose name matches the
// executable's base name. Unrelated processes sharing that name die too.
type NameCleaner struct{}

func (NameCleaner) Cleanup(ctx context.Context, proc Process) error {
	name := commName(proc.Executable)
	cmd := exec.CommandContext(ctx, "pkill", "-x", name)
	if out, err := cmd.CombinedOutput(); err != nil {
		// pkill exits 1 when nothing matched.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil
		}
		return fmt.Errorf("pkill %s: %s: %w", name, out, err)
	}
	return nil
}

func commName(executable string) string {
	name := filepath.Base(executable)
	return name[:min(len(name), commLen)]
}

type nopCleaner struct{}

func (nopCleaner) Cleanup(context.Context, Process) error { return nil }

// NewCleaner maps a cleanup mode from the config to a Cleaner.
func NewCleaner(mode string) (Cleaner, error) {
	switch mode {
	case "", "group":
		return GroupCleaner{}, nil
	case "name":
		return NameCleaner{}, nil
	case "none":
		return nopCleaner{}, nil
	default:
		return nil, fmt.Errorf("unknown cleanup mode %q", mode)
	}
}

func killGroup(pid int) error {
	if pid <= 0 {
		return nil
	}
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("killing process group %d: %w", pid, err)
	}
	return nil
}

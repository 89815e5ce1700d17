package sweep

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/signalnine/sweepbench/internal/result"
)

// Progress prints one line per finished trial, in the form
// "<file> - <threads> : <value>". The executable is prefixed when a sweep
// compares more than one.
type Progress struct {
	W              io.Writer
	ShowExecutable bool
}

var timedOutColor = color.New(color.FgRed)

func (p *Progress) Trial(s *result.Sample) {
	if p == nil || p.W == nil {
		return
	}
	prefix := fmt.Sprintf("%s - %d : ", s.Trial.File, s.Trial.Threads)
	if p.ShowExecutable {
		prefix = s.Trial.Executable + " - " + prefix
	}
	if s.TimedOut {
		fmt.Fprint(p.W, prefix)
		timedOutColor.Fprintln(p.W, "timed out")
		return
	}
	fmt.Fprintf(p.W, "%s%s\n", prefix, s.Value)
}

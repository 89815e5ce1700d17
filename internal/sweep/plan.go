package sweep

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/signalnine/sweepbench/internal/result"
)

// Dimension is one axis of the configuration space.
type Dimension string

const (
	File       Dimension = "file"
	Threads    Dimension = "threads"
	Executable Dimension = "executable"
)

func ParseDimension(s string) (Dimension, error) {
	switch d := Dimension(s); d {
	case File, Threads, Executable:
		return d, nil
	default:
		return "", fmt.Errorf("unknown dimension %q (want file, threads or executable)", s)
	}
}

// Measure selects what a successful trial contributes as its Y value.
type Measure string

const (
	// MeasureOutput keeps the solver's last output line verbatim.
	MeasureOutput Measure = "output"
	// MeasureWallclock uses the harness-measured elapsed seconds.
	MeasureWallclock Measure = "wallclock"
)

// Plan describes one sweep. Series picks the dimension whose values name the
// series, X the dimension swept inside each series. The remaining dimension
// is fixed and may hold at most one value.
type Plan struct {
	Executables []string
	Files       []string
	Threads     []int
	Series      Dimension
	X           Dimension
	Timeout     time.Duration
	Measure     Measure
}

func (p *Plan) Validate() error {
	if _, err := ParseDimension(string(p.Series)); err != nil {
		return fmt.Errorf("series: %w", err)
	}
	if _, err := ParseDimension(string(p.X)); err != nil {
		return fmt.Errorf("x: %w", err)
	}
	if p.Series == p.X {
		return fmt.Errorf("series and x must be different dimensions, both are %q", p.Series)
	}
	if n := p.count(p.Fixed()); n > 1 {
		return fmt.Errorf("fixed dimension %q has %d values, at most 1 allowed", p.Fixed(), n)
	}
	for _, n := range p.Threads {
		if n < 1 {
			return fmt.Errorf("thread count must be positive, got %d", n)
		}
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	switch p.Measure {
	case "", MeasureOutput, MeasureWallclock:
	default:
		return fmt.Errorf("unknown measure %q", p.Measure)
	}
	return nil
}

// Fixed returns the dimension that is neither Series nor X.
func (p *Plan) Fixed() Dimension {
	for _, d := range []Dimension{Executable, File, Threads} {
		if d != p.Series && d != p.X {
			return d
		}
	}
	return ""
}

// TrialCount is the number of trials a full run of the plan issues.
func (p *Plan) TrialCount() int {
	return len(p.Executables) * len(p.Files) * len(p.Threads)
}

func (p *Plan) count(d Dimension) int {
	switch d {
	case File:
		return len(p.Files)
	case Threads:
		return len(p.Threads)
	case Executable:
		return len(p.Executables)
	}
	return 0
}

// axisValue is one value along a dimension: the series name it produces when
// it is the outer key, the x label when it is swept, and how it fills a Trial.
type axisValue struct {
	name  string
	label string
	apply func(*result.Trial)
}

func (p *Plan) values(d Dimension) []axisValue {
	var vals []axisValue
	switch d {
	case File:
		for _, f := range p.Files {
			base := filepath.Base(f)
			vals = append(vals, axisValue{name: base, label: base, apply: func(t *result.Trial) { t.File = f }})
		}
	case Executable:
		for _, e := range p.Executables {
			base := filepath.Base(e)
			vals = append(vals, axisValue{name: base, label: base, apply: func(t *result.Trial) { t.Executable = e }})
		}
	case Threads:
		for _, n := range p.Threads {
			vals = append(vals, axisValue{name: threadsName(n), label: strconv.Itoa(n), apply: func(t *result.Trial) { t.Threads = n }})
		}
	}
	return vals
}

func threadsName(n int) string {
	if n == 1 {
		return "1 thread"
	}
	return fmt.Sprintf("%d threads", n)
}

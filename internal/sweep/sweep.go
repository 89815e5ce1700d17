// Package sweep drives a bounded invoker over the cross product of
// executables, input files and thread counts and groups the samples into
// series.
package sweep

import (
	"context"
	"fmt"
	"strconv"

	"github.com/signalnine/sweepbench/internal/metrics"
	"github.com/signalnine/sweepbench/internal/result"
	"github.com/signalnine/sweepbench/internal/runner"
)

// Aggregator runs trials strictly one at a time.
type Aggregator struct {
	Invoker  runner.Invoker
	Progress *Progress
	Metrics  *metrics.Recorder
}

// Run executes every trial of the plan and returns the series with at least
// two points, in the order their keys were supplied. A timed-out trial only
// leaves a gap in its series; any other invoker error aborts the sweep and no
// result is returned.
func (a *Aggregator) Run(ctx context.Context, plan *Plan) (*result.SweepResult, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	res := &result.SweepResult{}

	fixed := plan.values(plan.Fixed())
	if len(fixed) == 0 {
		return res, nil
	}
	inner := plan.values(plan.X)

	for _, outer := range plan.values(plan.Series) {
		series := result.Series{Name: outer.name}
		for _, x := range inner {
			var trial result.Trial
			fixed[0].apply(&trial)
			outer.apply(&trial)
			x.apply(&trial)

			sample, err := a.Invoker.Invoke(ctx, trial, plan.Timeout)
			if err != nil {
				return nil, fmt.Errorf("trial %s %s %d: %w", trial.Executable, trial.File, trial.Threads, err)
			}
			a.Progress.Trial(sample)
			if sample.TimedOut {
				a.Metrics.ObserveTimeout(sample.CleanedUp)
				continue
			}
			a.Metrics.ObserveTrial(sample.Elapsed)
			series.Append(x.label, plan.yValue(sample))
		}
		if series.Informative() {
			res.Series = append(res.Series, series)
		}
	}
	return res, nil
}

func (p *Plan) yValue(s *result.Sample) string {
	if p.Measure == MeasureWallclock {
		return strconv.FormatFloat(s.Elapsed.Seconds(), 'f', 3, 64)
	}
	return s.Value
}

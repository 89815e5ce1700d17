// Package metrics exposes Prometheus counters for a running sweep.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the set of sweep metrics, registered on its own registry so
// that several sweeps in one process (tests) do not collide.
type Recorder struct {
	Registry *prometheus.Registry

	trials   *prometheus.CounterVec
	duration prometheus.Histogram
	cleanups prometheus.Counter
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		Registry: reg,
		trials: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sweepbench_trials_total",
			Help: "Trials executed, by outcome.",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sweepbench_trial_duration_seconds",
			Help:    "Wall-clock duration of completed trials.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 12),
		}),
		cleanups: factory.NewCounter(prometheus.CounterOpts{
			Name: "sweepbench_cleanups_total",
			Help: "Cleanups performed after a trial timed out.",
		}),
	}
}

// ObserveTrial records a completed trial. A nil Recorder is a no-op.
func (r *Recorder) ObserveTrial(elapsed time.Duration) {
	if r == nil {
		return
	}
	r.trials.WithLabelValues("ok").Inc()
	r.duration.Observe(elapsed.Seconds())
}

// ObserveTimeout records a timed-out trial, and the cleanup that followed it
// if one ran.
func (r *Recorder) ObserveTimeout(cleaned bool) {
	if r == nil {
		return
	}
	r.trials.WithLabelValues("timeout").Inc()
	if cleaned {
		r.cleanups.Inc()
	}
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{Registry: r.Registry})
}

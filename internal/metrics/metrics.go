// Package metrics publishes compiler-pipeline observability as
// Prometheus metrics via github.com/prometheus/client_golang. This is
// additive: diag.Sink remains the diagnostic channel of record;
// Registry only mirrors its counters for scraping and times the
// phases of internal/compiler's driver loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rexlang/scriptc/internal/diag"
)

// Registry holds the compiler's Prometheus collectors. A nil
// *Registry is valid and makes every method a no-op, so instrumenting
// a call site never forces a Registry to exist (e.g. in unit tests
// that only care about diag.Sink).
type Registry struct {
	errors   *prometheus.CounterVec
	warnings *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRegistry creates and registers the compiler's collectors against
// reg. Pass prometheus.NewRegistry() for an isolated test registry, or
// prometheus.DefaultRegisterer for a process-wide one.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scriptc_compile_errors_total",
			Help: "Total compile errors reported, by module.",
		}, []string{"module"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scriptc_compile_warnings_total",
			Help: "Total compile warnings reported, by module.",
		}, []string{"module"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scriptc_compile_duration_seconds",
			Help:    "Wall-clock time spent in each compile phase.",
			Buckets: prometheus.DefBuckets,
		}, []string{"phase"}),
	}
	reg.MustRegister(r.errors, r.warnings, r.duration)
	return r
}

// ObservePhase records the duration (in seconds) a named compile phase
// took (the compiler driver uses "filebuild.parse", "imports.merge",
// "stublib.link", "elaborate.emit" and "imports.prune").
func (r *Registry) ObservePhase(phase string, seconds float64) {
	if r == nil {
		return
	}
	r.duration.WithLabelValues(phase).Observe(seconds)
}

// SyncSink mirrors a diag.Sink's current error/warning counts into the
// Prometheus counters for module. Counters are monotonic by
// Prometheus convention; SyncSink is meant to be called once, after
// the sink will no longer change (end of compilation), not polled
// mid-compile.
func (r *Registry) SyncSink(module string, sink *diag.Sink) {
	if r == nil {
		return
	}
	r.errors.WithLabelValues(module).Add(float64(sink.Errors()))
	r.warnings.WithLabelValues(module).Add(float64(sink.Warnings()))
}

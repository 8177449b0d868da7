// Package metrics records Prometheus metrics for dry runs, policy checks and
// script materialization.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for stagehand. All record methods are
// safe to call on a nil *Metrics.
type Metrics struct {
	// Dry run metrics
	DryRuns            *prometheus.CounterVec
	DryRunDuration     prometheus.Histogram
	PhasesMaterialized prometheus.Counter
	PreScripts         prometheus.Counter
	BuildIntents       *prometheus.CounterVec

	// Policy check metrics
	PolicyChecks     *prometheus.CounterVec
	PolicyViolations *prometheus.CounterVec

	// Materialization metrics
	ScriptsWritten prometheus.Counter

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		DryRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stagehand_dry_runs_total",
				Help: "Total number of dry runs",
			},
			[]string{"pipeline", "success"},
		),
		DryRunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stagehand_dry_run_duration_seconds",
				Help:    "Dry run duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		PhasesMaterialized: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "stagehand_phases_materialized_total",
				Help: "Total number of phases whose scripts were materialized",
			},
		),
		PreScripts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "stagehand_pre_scripts_total",
				Help: "Total number of phases that produced a preparation script",
			},
		),
		BuildIntents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stagehand_build_intents_total",
				Help: "Total number of container build and push declarations",
			},
			[]string{"kind"},
		),

		PolicyChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stagehand_policy_checks_total",
				Help: "Total number of policy checks",
			},
			[]string{"result"},
		),
		PolicyViolations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stagehand_policy_violations_total",
				Help: "Total number of policy violations",
			},
			[]string{"rule"},
		),

		ScriptsWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "stagehand_scripts_written_total",
				Help: "Total number of script files written to disk",
			},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stagehand_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code"},
		),
	}
}

// RecordDryRun records the outcome of a dry run.
func (m *Metrics) RecordDryRun(pipelineID string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.DryRuns.WithLabelValues(pipelineID, boolLabel(success)).Inc()
	m.DryRunDuration.Observe(duration.Seconds())
}

// RecordPhase records a materialized phase.
func (m *Metrics) RecordPhase(hasPreScript, build, push bool) {
	if m == nil {
		return
	}
	m.PhasesMaterialized.Inc()
	if hasPreScript {
		m.PreScripts.Inc()
	}
	if build {
		m.BuildIntents.WithLabelValues("build").Inc()
	}
	if push {
		m.BuildIntents.WithLabelValues("push").Inc()
	}
}

// RecordPolicyCheck records a policy check and one violation per rule hit.
func (m *Metrics) RecordPolicyCheck(violatedRules []string) {
	if m == nil {
		return
	}
	if len(violatedRules) == 0 {
		m.PolicyChecks.WithLabelValues("pass").Inc()
		return
	}
	m.PolicyChecks.WithLabelValues("fail").Inc()
	for _, rule := range violatedRules {
		m.PolicyViolations.WithLabelValues(rule).Inc()
	}
}

// RecordScriptsWritten adds n written script files.
func (m *Metrics) RecordScriptsWritten(n int) {
	if m == nil {
		return
	}
	m.ScriptsWritten.Add(float64(n))
}

// RecordError counts an error by its code.
func (m *Metrics) RecordError(code string) {
	if m == nil || code == "" {
		return
	}
	m.Errors.WithLabelValues(code).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

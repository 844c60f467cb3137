package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/arbal/LISAv2/pkg/schema"
)

// Metrics collects run-level Prometheus metrics. A disabled instance
// is a no-op so callers never need nil checks.
type Metrics struct {
	config schema.MetricsConfig

	runsStarted    prometheus.Counter
	runsCompleted  *prometheus.CounterVec
	caseResults    *prometheus.CounterVec
	caseDuration   prometheus.Histogram
	deployDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates the metrics collector. When cfg.Enabled is false
// the returned instance records nothing.
func NewMetrics(cfg schema.MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return &Metrics{config: cfg}
	}

	registry := prometheus.NewRegistry()
	m := &Metrics{
		config:   cfg,
		registry: registry,
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lisa",
			Name:      "runs_started_total",
			Help:      "Total number of runs started",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lisa",
			Name:      "runs_completed_total",
			Help:      "Total number of runs completed, by outcome",
		}, []string{"outcome"}),
		caseResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lisa",
			Name:      "case_results_total",
			Help:      "Terminal test case statuses",
		}, []string{"status"}),
		caseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lisa",
			Name:      "case_duration_seconds",
			Help:      "Wall time per test case",
			Buckets:   prometheus.DefBuckets,
		}),
		deployDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lisa",
			Name:      "environment_deploy_duration_seconds",
			Help:      "Time spent deploying environments",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	registry.MustRegister(
		m.runsStarted,
		m.runsCompleted,
		m.caseResults,
		m.caseDuration,
		m.deployDuration,
	)
	return m
}

// RecordRunStarted counts one run start.
func (m *Metrics) RecordRunStarted() {
	if m.registry == nil {
		return
	}
	m.runsStarted.Inc()
}

// RecordRunCompleted counts one finished run by outcome.
func (m *Metrics) RecordRunCompleted(outcome string) {
	if m.registry == nil {
		return
	}
	m.runsCompleted.WithLabelValues(outcome).Inc()
}

// RecordCaseResult counts one terminal case status with its duration.
func (m *Metrics) RecordCaseResult(status string, elapsed time.Duration) {
	if m.registry == nil {
		return
	}
	m.caseResults.WithLabelValues(status).Inc()
	m.caseDuration.Observe(elapsed.Seconds())
}

// RecordDeploy observes one environment deployment.
func (m *Metrics) RecordDeploy(elapsed time.Duration) {
	if m.registry == nil {
		return
	}
	m.deployDuration.Observe(elapsed.Seconds())
}

// Handler exposes the scrape endpoint; nil when metrics are disabled.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts the scrape endpoint in the background. Server errors
// are logged, never fatal to the run.
func (m *Metrics) Serve(log zerolog.Logger) {
	if m.registry == nil || m.config.Listen == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	go func() {
		log.Info().Str("listen", m.config.Listen).Msg("metrics endpoint started")
		if err := http.ListenAndServe(m.config.Listen, mux); err != nil {
			log.Error().Err(err).Msg("metrics endpoint stopped")
		}
	}()
}

// Package metrics exposes prometheus collectors for delay analyses and
// solver runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a registry with the collectors of one application instance.
type Metrics struct {
	registry *prometheus.Registry

	analysesTotal     *prometheus.CounterVec
	delayBound        *prometheus.GaugeVec
	freeParameters    *prometheus.GaugeVec
	solverRunsTotal   *prometheus.CounterVec
	solverEvaluations *prometheus.CounterVec
	solverDuration    *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry, next to the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		analysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "optree_analyses_total",
			Help: "Number of delay analyses by plugin and solver status",
		}, []string{"plugin", "status"}),
		delayBound: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "optree_delay_bound_seconds",
			Help: "Last delay bound computed for a flow of interest",
		}, []string{"flow", "plugin"}),
		freeParameters: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "optree_free_parameters",
			Help: "Number of free parameters of the last analysis of a flow",
		}, []string{"flow", "plugin"}),
		solverRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "optree_solver_runs_total",
			Help: "Number of solver runs by algorithm and status",
		}, []string{"algorithm", "status"}),
		solverEvaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "optree_solver_objective_evaluations_total",
			Help: "Objective evaluations performed by the solver",
		}, []string{"algorithm"}),
		solverDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "optree_solver_duration_seconds",
			Help:    "Duration of solver runs",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"algorithm"}),
	}
}

// ObserveAnalysis records a finished analysis.
func (m *Metrics) ObserveAnalysis(flow, plugin, status string, bound float64, params int) {
	m.analysesTotal.WithLabelValues(plugin, status).Inc()
	m.delayBound.WithLabelValues(flow, plugin).Set(bound)
	m.freeParameters.WithLabelValues(flow, plugin).Set(float64(params))
}

// ObserveSolve records a finished solver run.
func (m *Metrics) ObserveSolve(algorithm, status string, evaluations int, elapsed time.Duration) {
	m.solverRunsTotal.WithLabelValues(algorithm, status).Inc()
	m.solverEvaluations.WithLabelValues(algorithm).Add(float64(evaluations))
	m.solverDuration.WithLabelValues(algorithm).Observe(elapsed.Seconds())
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

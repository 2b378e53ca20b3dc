// Package metrics provides Prometheus metrics for the pipeline and the
// prediction service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vehicle-insurance-mlops/internal/core/domain"
)

// Stage outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Manager owns every collector. A nil *Manager is valid and records nothing.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	stageDuration     *prometheus.HistogramVec
	runsTotal         *prometheus.CounterVec
	modelScore        *prometheus.GaugeVec
	predictions       *prometheus.CounterVec
	predictionLatency prometheus.Histogram
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

type Option func(*Manager)

func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithRegistry uses reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(m *Manager) {
		if reg != nil {
			m.registry = reg
		}
	}
}

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(m *Manager) {
		m.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
}

func New(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vehicle_insurance",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	f := promauto.With(m.registry)
	m.stageDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Duration of pipeline stages.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
	}, []string{"stage", "outcome"})
	m.runsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Finished pipeline runs by final status.",
	}, []string{"status"})
	m.modelScore = f.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "pipeline",
		Name:      "model_score",
		Help:      "Evaluation score of the last candidate and reference model.",
	}, []string{"model"})
	m.predictions = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "serving",
		Name:      "predictions_total",
		Help:      "Predictions served by predicted class.",
	}, []string{"class"})
	m.predictionLatency = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "serving",
		Name:      "prediction_duration_seconds",
		Help:      "Time spent scoring a single request.",
		Buckets:   m.histogramBuckets,
	})
	m.httpRequests = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	m.httpDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   m.histogramBuckets,
	}, []string{"method", "route"})

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) ObserveStage(stage domain.Stage, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(string(stage), outcome).Observe(d.Seconds())
}

func (m *Manager) RecordRun(status domain.RunStatus) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(string(status)).Inc()
}

func (m *Manager) SetModelScores(candidate, reference float64) {
	if m == nil {
		return
	}
	m.modelScore.WithLabelValues("candidate").Set(candidate)
	m.modelScore.WithLabelValues("reference").Set(reference)
}

func (m *Manager) ObservePrediction(class int, d time.Duration) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(strconv.Itoa(class)).Inc()
	m.predictionLatency.Observe(d.Seconds())
}

func (m *Manager) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Package metrics exposes Prometheus instrumentation for the diagnosis pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes recorded for each analysis request.
const (
	OutcomeNoImage        = "no_image"
	OutcomeClassifyFailed = "classify_failed"
	OutcomeOK             = "ok"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	analyses       *prometheus.CounterVec
	predictions    *prometheus.CounterVec
	adviceFailures *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantdoc",
			Name:      "analyses_total",
			Help:      "Analysis requests by outcome.",
		}, []string{"outcome"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantdoc",
			Name:      "top_predictions_total",
			Help:      "Top-ranked disease labels returned by the classifier.",
		}, []string{"label"}),
		adviceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantdoc",
			Name:      "advice_failures_total",
			Help:      "Advice generations that degraded to a warning.",
		}, []string{"reason"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "plantdoc",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"stage"}),
	}

	m.registry.MustRegister(m.analyses, m.predictions, m.adviceFailures, m.stageDuration)
	m.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

func (m *Metrics) ObserveAnalysis(outcome string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveTopPrediction(label string) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveAdviceFailure(reason string) {
	if m == nil {
		return
	}
	m.adviceFailures.WithLabelValues(reason).Inc()
}

// ObserveStage records how long a pipeline stage took, measured from start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

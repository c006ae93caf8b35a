package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "demandcast"

// Product results
const (
	ResultSucceeded = "succeeded"
	ResultFallback  = "fallback"
	ResultFailed    = "failed"
)

// Metrics exposes pipeline metrics on its own registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ProductsTotal    *prometheus.CounterVec
	FailuresTotal    *prometheus.CounterVec
	FitDuration      prometheus.Histogram
	ProductMAPE      *prometheus.GaugeVec
	RunsTotal        prometheus.Counter
	RunDuration      prometheus.Histogram
	LastRunTimestamp prometheus.Gauge
}

// New creates the pipeline metrics on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ProductsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "products_total",
				Help:      "Products processed by result (succeeded/fallback/failed)",
			},
			[]string{"result"},
		),
		FailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "product_failures_total",
				Help:      "Per-product failures by stage and reason",
			},
			[]string{"stage", "reason"},
		),
		FitDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fit_duration_seconds",
				Help:      "Duration of one product model fit in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		ProductMAPE: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "product_mape",
				Help:      "Latest MAPE (percent) per product",
			},
			[]string{"product"},
		),
		RunsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Completed pipeline runs",
			},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of a full pipeline run in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		LastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time of the last completed run",
			},
		),
	}
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordProduct counts one product outcome
func (m *Metrics) RecordProduct(result string) {
	if m == nil {
		return
	}
	m.ProductsTotal.WithLabelValues(result).Inc()
}

// RecordFailure counts one per-product failure
func (m *Metrics) RecordFailure(stage, reason string) {
	if m == nil {
		return
	}
	m.FailuresTotal.WithLabelValues(stage, reason).Inc()
}

// ObserveFit records one fit duration
func (m *Metrics) ObserveFit(d time.Duration) {
	if m == nil {
		return
	}
	m.FitDuration.Observe(d.Seconds())
}

// SetMAPE records the latest MAPE of product
func (m *Metrics) SetMAPE(product string, mape float64) {
	if m == nil {
		return
	}
	m.ProductMAPE.WithLabelValues(product).Set(mape)
}

// RecordRun marks a completed run
func (m *Metrics) RecordRun(d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.Inc()
	m.RunDuration.Observe(d.Seconds())
	m.LastRunTimestamp.SetToCurrentTime()
}

// Package prom exposes generator metrics to Prometheus.
//
// Collector implements advgo.MetricsCollector. Wire it into a generator
// and serve its handler:
//
//	collector, err := prom.New(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	g, err := advgo.HopSkipJump(model).
//	    Metrics(collector).
//	    Build()
//
//	http.Handle("/metrics", collector.Handler())
package prom

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/advgo"
	"github.com/hupe1980/advgo/attack"
)

// Compile-time interface check.
var _ advgo.MetricsCollector = (*Collector)(nil)

// Options configures the collector.
type Options struct {
	// Namespace prefixes every metric name.
	Namespace string
}

// DefaultOptions is the default configuration for New.
var DefaultOptions = Options{
	Namespace: "advgo",
}

// Collector translates generator metrics into Prometheus series. One
// Collector may serve several generators; its series are process-wide.
type Collector struct {
	registry *prometheus.Registry

	samplesTotal               *prometheus.CounterVec
	sampleErrorsTotal          prometheus.Counter
	queriesTotal               prometheus.Counter
	labelResolutionsTotal      prometheus.Counter
	labelResolutionErrorsTotal prometheus.Counter
	generateRunsTotal          prometheus.Counter

	sampleDurationSeconds   *prometheus.HistogramVec
	sampleQueries           prometheus.Histogram
	generateDurationSeconds prometheus.Histogram
}

// New creates a Collector and registers its metrics on reg. A nil reg
// backs the collector with a private registry, exposed via Handler.
func New(reg prometheus.Registerer, optFns ...func(o *Options)) (*Collector, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Collector{}

	if reg == nil {
		c.registry = prometheus.NewRegistry()
		reg = c.registry
	}

	c.samplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "samples_total",
			Help:      "Total number of attacked samples by final status and outcome",
		},
		[]string{"status", "outcome"},
	)

	c.sampleErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "sample_errors_total",
			Help:      "Total number of samples that finished with an error",
		},
	)

	c.queriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "oracle_queries_total",
			Help:      "Total number of oracle queries consumed",
		},
	)

	c.labelResolutionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "label_resolutions_total",
			Help:      "Total number of original labels resolved through the oracle",
		},
	)

	c.labelResolutionErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "label_resolution_errors_total",
			Help:      "Total number of failed label resolution calls",
		},
	)

	c.generateRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "generate_runs_total",
			Help:      "Total number of batch generation runs",
		},
	)

	c.sampleDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "sample_duration_seconds",
			Help:      "Per-sample attack duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		},
		[]string{"outcome"},
	)

	c.sampleQueries = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "sample_queries",
			Help:      "Distribution of oracle queries per sample",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		},
	)

	c.generateDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "generate_duration_seconds",
			Help:      "Batch generation duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		},
	)

	collectors := []prometheus.Collector{
		c.samplesTotal,
		c.sampleErrorsTotal,
		c.queriesTotal,
		c.labelResolutionsTotal,
		c.labelResolutionErrorsTotal,
		c.generateRunsTotal,
		c.sampleDurationSeconds,
		c.sampleQueries,
		c.generateDurationSeconds,
	}

	for _, col := range collectors {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	return c, nil
}

// Handler returns an exposition handler for the collector's private
// registry. It returns nil when New was given an external registerer;
// exposition is then the registerer owner's concern.
func (c *Collector) Handler() http.Handler {
	if c.registry == nil {
		return nil
	}

	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// RecordLabelResolution implements advgo.MetricsCollector.
func (c *Collector) RecordLabelResolution(count int, duration time.Duration, err error) {
	c.labelResolutionsTotal.Add(float64(count))

	if err != nil {
		c.labelResolutionErrorsTotal.Inc()
	}
}

// RecordSample implements advgo.MetricsCollector.
func (c *Collector) RecordSample(status attack.Status, success bool, queries int, duration time.Duration, err error) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}

	c.samplesTotal.WithLabelValues(status.String(), outcome).Inc()
	c.sampleDurationSeconds.WithLabelValues(outcome).Observe(duration.Seconds())
	c.sampleQueries.Observe(float64(queries))
	c.queriesTotal.Add(float64(queries))

	if err != nil {
		c.sampleErrorsTotal.Inc()
	}
}

// RecordGenerate implements advgo.MetricsCollector.
func (c *Collector) RecordGenerate(samples, failed int, duration time.Duration) {
	c.generateRunsTotal.Inc()
	c.generateDurationSeconds.Observe(duration.Seconds())
}

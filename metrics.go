package advgo

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/advgo/attack"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordLabelResolution is called after the oracle call that resolves
	// original labels for a batch. count is the number of samples resolved,
	// err is nil if successful.
	RecordLabelResolution(count int, duration time.Duration, err error)

	// RecordSample is called after each sample's attack finishes.
	// queries is the number of oracle queries the sample consumed.
	RecordSample(status attack.Status, success bool, queries int, duration time.Duration, err error)

	// RecordGenerate is called after each batch generation run.
	// samples is the number of samples attempted, failed is the number
	// that produced no adversarial example.
	RecordGenerate(samples, failed int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLabelResolution(int, time.Duration, error)             {}
func (NoopMetricsCollector) RecordSample(attack.Status, bool, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordGenerate(int, int, time.Duration)                      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	GenerateCount         atomic.Int64
	SampleCount           atomic.Int64
	SampleSucceeded       atomic.Int64
	SampleFailed          atomic.Int64
	SampleErrors          atomic.Int64
	SampleTotalNanos      atomic.Int64
	QueriesTotal          atomic.Int64
	BudgetExhausted       atomic.Int64
	LabelResolutionCount  atomic.Int64
	LabelResolutionErrors atomic.Int64
}

// RecordLabelResolution implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLabelResolution(count int, duration time.Duration, err error) {
	b.LabelResolutionCount.Add(int64(count))
	if err != nil {
		b.LabelResolutionErrors.Add(1)
	}
}

// RecordSample implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSample(status attack.Status, success bool, queries int, duration time.Duration, err error) {
	b.SampleCount.Add(1)
	b.SampleTotalNanos.Add(duration.Nanoseconds())
	b.QueriesTotal.Add(int64(queries))
	if success {
		b.SampleSucceeded.Add(1)
	} else {
		b.SampleFailed.Add(1)
	}
	if err != nil {
		b.SampleErrors.Add(1)
	}
	if status == attack.StatusBudgetExhausted {
		b.BudgetExhausted.Add(1)
	}
}

// RecordGenerate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGenerate(samples, failed int, duration time.Duration) {
	b.GenerateCount.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		GenerateCount:         b.GenerateCount.Load(),
		SampleCount:           b.SampleCount.Load(),
		SampleSucceeded:       b.SampleSucceeded.Load(),
		SampleFailed:          b.SampleFailed.Load(),
		SampleErrors:          b.SampleErrors.Load(),
		SampleAvgNanos:        b.getAvgSampleNanos(),
		QueriesTotal:          b.QueriesTotal.Load(),
		QueriesAvg:            b.getAvgQueries(),
		BudgetExhausted:       b.BudgetExhausted.Load(),
		LabelResolutionCount:  b.LabelResolutionCount.Load(),
		LabelResolutionErrors: b.LabelResolutionErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSampleNanos() int64 {
	count := b.SampleCount.Load()
	if count == 0 {
		return 0
	}
	return b.SampleTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgQueries() int64 {
	count := b.SampleCount.Load()
	if count == 0 {
		return 0
	}
	return b.QueriesTotal.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	GenerateCount         int64
	SampleCount           int64
	SampleSucceeded       int64
	SampleFailed          int64
	SampleErrors          int64
	SampleAvgNanos        int64
	QueriesTotal          int64
	QueriesAvg            int64
	BudgetExhausted       int64
	LabelResolutionCount  int64
	LabelResolutionErrors int64
}

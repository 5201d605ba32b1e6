package advgo

import (
	"log/slog"

	"github.com/hupe1980/advgo/resource"
)

type options struct {
	workers          int64
	queryRate        int64
	chunkSize        int
	cacheSize        int
	seed             *int64
	controller       *resource.Controller
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Generator constructor behavior.
//
// Options primarily exist to avoid exploding the API surface
// (e.g. oracle-decoration-specific constructor variants).
type Option func(*options)

// WithWorkers configures how many samples of a batch are attacked
// concurrently. Each worker drives one sample's full search loop.
//
// The oracle sees the combined query streams of all workers; raise the
// worker count only when the oracle tolerates concurrent batches.
//
// If n <= 1, samples are attacked one at a time (default).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = int64(n)
	}
}

// WithQueryRate caps the number of oracle queries per second across all
// workers. Zero means unlimited (default).
//
// Rate limiting is applied per probe batch, so a single large direction
// estimate may briefly exceed the cap before throttling kicks in.
func WithQueryRate(perSec int) Option {
	return func(o *options) {
		o.queryRate = int64(perSec)
	}
}

// WithChunkSize splits oracle batches larger than n into sequential
// chunks. Use this when the model endpoint rejects large batches.
// Zero means batches are passed through unchanged (default).
func WithChunkSize(n int) Option {
	return func(o *options) {
		o.chunkSize = n
	}
}

// WithCache adds an LRU label cache of the given capacity in front of
// the oracle. Repeated probes of the same point, common during boundary
// bisection, are answered from the cache without spending budget on the
// wire. Zero disables caching (default).
//
// Note that cached answers still count against the attack's query
// budget; the cache saves oracle load, not budget.
func WithCache(capacity int) Option {
	return func(o *options) {
		o.cacheSize = capacity
	}
}

// WithSeed makes batch runs reproducible. Sample i of a batch derives
// its own seed as seed+i, so results are stable under any worker count.
// Without a seed, runs are self-seeded and non-reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = &seed
	}
}

// WithResourceController supplies a shared resource controller, for
// example to subject several Generators to one global query budget.
// When set, WithWorkers and WithQueryRate are ignored.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &advgo.BasicMetricsCollector{}
//	g, _ := advgo.HopSkipJump(model).Metrics(metrics).Build()
//	// ... use g ...
//	stats := metrics.GetStats()
//	fmt.Printf("Samples: %d, Avg queries: %d\n", stats.SampleCount, stats.QueriesAvg)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := advgo.NewJSONLogger(slog.LevelInfo)
//	g, _ := advgo.NewGenerator(model, atk, advgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		workers:          1,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// Package advgo provides decision-based adversarial example generation.
//
// This file implements the attack-specific fluent builder API for creating
// and configuring Generator instances. Builders are immutable - each method
// returns a new builder with the updated configuration.
package advgo

import (
	"github.com/hupe1980/advgo/attack/hopskipjump"
	"github.com/hupe1980/advgo/norm"
	"github.com/hupe1980/advgo/oracle"
)

// HopSkipJump creates a new HopSkipJump generator builder around the
// given oracle. HopSkipJump finds minimal adversarial perturbations from
// hard labels alone, no gradients or scores required.
//
// The builder is immutable - each method returns a new builder with the
// updated configuration. This ensures thread-safety and prevents
// accidental state sharing.
//
// Example:
//
//	g, err := advgo.HopSkipJump(model).
//	    L2().
//	    MaxIter(40).
//	    MaxEval(2000).
//	    Workers(4).
//	    Seed(42).
//	    Build()
func HopSkipJump(o oracle.Oracle) HopSkipJumpBuilder {
	defaults := hopskipjump.DefaultOptions
	return HopSkipJumpBuilder{
		oracle:   o,
		norm:     defaults.Norm,
		maxIter:  defaults.MaxIter,
		maxEval:  defaults.MaxEval,
		initEval: defaults.InitEval,
		initSize: defaults.InitSize,
		theta:    defaults.Theta,
		clipMin:  defaults.ClipMin,
		clipMax:  defaults.ClipMax,
		workers:  1,
	}
}

// HopSkipJumpBuilder is an immutable fluent builder for creating
// HopSkipJump-based Generator instances.
// Each method returns a new builder with the updated configuration.
type HopSkipJumpBuilder struct {
	oracle    oracle.Oracle
	targeted  bool
	norm      norm.Norm
	maxIter   int
	maxEval   int
	initEval  int
	initSize  int
	theta     float64
	clipMin   float64
	clipMax   float64
	seed      *int64
	workers   int
	queryRate int
	chunkSize int
	cacheSize int
	logger    *Logger
	metrics   MetricsCollector
}

// L2 sets the perturbation norm to Euclidean distance.
func (b HopSkipJumpBuilder) L2() HopSkipJumpBuilder {
	b.norm = norm.L2
	return b
}

// LInf sets the perturbation norm to maximum coordinate change.
func (b HopSkipJumpBuilder) LInf() HopSkipJumpBuilder {
	b.norm = norm.LInf
	return b
}

// Targeted makes the attack search for specific labels instead of any
// label change. Batches must then be run via GenerateTargeted or with
// per-run Target calls.
func (b HopSkipJumpBuilder) Targeted() HopSkipJumpBuilder {
	b.targeted = true
	return b
}

// MaxIter sets the iteration budget per sample.
// Default: 50. More iterations refine the perturbation further.
func (b HopSkipJumpBuilder) MaxIter(n int) HopSkipJumpBuilder {
	b.maxIter = n
	return b
}

// MaxEval caps the probe count of a single direction estimate.
// MaxEval*MaxIter is the per-sample query budget.
// Default: 10000.
func (b HopSkipJumpBuilder) MaxEval(n int) HopSkipJumpBuilder {
	b.maxEval = n
	return b
}

// InitEval sets the probe count of the first direction estimate; later
// estimates grow from it with the square root of the iteration.
// Default: 100.
func (b HopSkipJumpBuilder) InitEval(n int) HopSkipJumpBuilder {
	b.initEval = n
	return b
}

// InitSize sets the number of random draws allowed when searching for
// an adversarial starting point.
// Default: 100.
func (b HopSkipJumpBuilder) InitSize(n int) HopSkipJumpBuilder {
	b.initSize = n
	return b
}

// Theta sets the boundary precision knob, normalized internally by the
// sample's dimensionality.
// Default: 1.0. Lower it for toy dimensions.
func (b HopSkipJumpBuilder) Theta(theta float64) HopSkipJumpBuilder {
	b.theta = theta
	return b
}

// Clip bounds the valid input range for starting points, probes, and
// steps.
// Default: [0, 1].
func (b HopSkipJumpBuilder) Clip(minVal, maxVal float64) HopSkipJumpBuilder {
	b.clipMin = minVal
	b.clipMax = maxVal
	return b
}

// Seed makes runs reproducible. Sample i of a batch derives its own
// seed as seed+i. If not set, runs are self-seeded.
func (b HopSkipJumpBuilder) Seed(seed int64) HopSkipJumpBuilder {
	b.seed = &seed
	return b
}

// Workers sets how many samples of a batch are attacked concurrently.
// Default: 1 (sequential). The oracle must tolerate concurrent batches.
func (b HopSkipJumpBuilder) Workers(n int) HopSkipJumpBuilder {
	b.workers = n
	return b
}

// QueryRate caps oracle queries per second across all workers.
// Default: 0 (unlimited).
func (b HopSkipJumpBuilder) QueryRate(perSec int) HopSkipJumpBuilder {
	b.queryRate = perSec
	return b
}

// ChunkSize splits oracle batches larger than n into sequential chunks,
// for model endpoints that reject large batches.
// Default: 0 (pass batches through unchanged).
func (b HopSkipJumpBuilder) ChunkSize(n int) HopSkipJumpBuilder {
	b.chunkSize = n
	return b
}

// Cache adds an LRU label cache of the given capacity in front of the
// oracle.
// Default: 0 (no cache).
func (b HopSkipJumpBuilder) Cache(capacity int) HopSkipJumpBuilder {
	b.cacheSize = capacity
	return b
}

// Logger sets the structured logger for operation tracing.
func (b HopSkipJumpBuilder) Logger(l *Logger) HopSkipJumpBuilder {
	b.logger = l
	return b
}

// Metrics sets the metrics collector for monitoring.
func (b HopSkipJumpBuilder) Metrics(mc MetricsCollector) HopSkipJumpBuilder {
	b.metrics = mc
	return b
}

// Build creates the HopSkipJump-based Generator instance.
func (b HopSkipJumpBuilder) Build() (*Generator, error) {
	atk, err := hopskipjump.New(func(o *hopskipjump.Options) {
		o.Targeted = b.targeted
		o.Norm = b.norm
		o.MaxIter = b.maxIter
		o.MaxEval = b.maxEval
		o.InitEval = b.initEval
		o.InitSize = b.initSize
		o.Theta = b.theta
		o.ClipMin = b.clipMin
		o.ClipMax = b.clipMax
		o.RandomSeed = b.seed
	})
	if err != nil {
		return nil, err
	}

	var genOpts []Option
	if b.seed != nil {
		genOpts = append(genOpts, WithSeed(*b.seed))
	}
	if b.workers > 1 {
		genOpts = append(genOpts, WithWorkers(b.workers))
	}
	if b.queryRate > 0 {
		genOpts = append(genOpts, WithQueryRate(b.queryRate))
	}
	if b.chunkSize > 0 {
		genOpts = append(genOpts, WithChunkSize(b.chunkSize))
	}
	if b.cacheSize > 0 {
		genOpts = append(genOpts, WithCache(b.cacheSize))
	}
	if b.logger != nil {
		genOpts = append(genOpts, WithLogger(b.logger))
	}
	if b.metrics != nil {
		genOpts = append(genOpts, WithMetricsCollector(b.metrics))
	}

	return NewGenerator(b.oracle, atk, genOpts...)
}

// MustBuild creates the Generator instance, panicking on error.
func (b HopSkipJumpBuilder) MustBuild() *Generator {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}

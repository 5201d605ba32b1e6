// Package advgo generates adversarial examples against black-box
// classifiers from hard labels alone.
//
// Advgo implements decision-based attacks: it never touches model
// internals, gradients, or confidence scores. The only requirement is an
// oracle that maps input vectors to class labels, and the attack walks
// the oracle's decision boundary to find the smallest perturbation that
// changes the answer.
//
//   - HopSkipJump attack with L2 and LInf perturbation norms
//   - Untargeted (any label change) and targeted (specific label) goals
//   - Strict per-sample query budgets with graceful exhaustion
//   - Monotone distance traces for convergence analysis
//   - Batch generation with bounded concurrency and per-sample seeds
//   - Oracle adapters for caching, chunking, rate limiting, and counting
//
// # Quick Start
//
// Wrap the model under test as an oracle and build a generator:
//
//	model := oracle.FromLabeler(func(v []float64) int {
//	    return myClassifier.Predict(v)
//	})
//
//	g, err := advgo.HopSkipJump(model).
//	    L2().                       // Perturbation norm
//	    MaxIter(40).                // Search iterations per sample
//	    MaxEval(2000).              // Probe cap per direction estimate
//	    Workers(4).                 // Concurrent samples
//	    Seed(42).                   // Reproducible runs
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Generate adversarial examples for a batch:
//
//	results, err := g.Generate(ctx, samples)
//	for _, r := range results {
//	    if r.Success {
//	        fmt.Println(r.Index, r.Distance, r.Queries)
//	    }
//	}
//
// Or attack a single sample with the fluent API:
//
//	res, err := g.Attack(sample).
//	    Label(3).        // Skip label resolution
//	    Seed(7).
//	    Execute(ctx)
//
// # Query Accounting
//
// Every oracle call an attack makes is charged against the sample's
// budget of MaxEval*MaxIter queries, including the label resolution
// query when Generate infers original labels. Budget exhaustion is not
// an error: the result carries the best candidate found so far and
// StatusBudgetExhausted.
//
// # Goal Semantics
//
// Untargeted goals succeed on any label other than the original.
// Targeted goals succeed only on the requested label; a target equal to
// the original label is rejected per sample, since any perturbation of
// size zero already satisfies it.
package advgo

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/advgo/attack"
	"github.com/hupe1980/advgo/internal/floats"
	"github.com/hupe1980/advgo/oracle"
	"github.com/hupe1980/advgo/resource"
)

// Generator runs a decision-based attack over batches of samples.
// It is safe for concurrent use.
type Generator struct {
	attack  attack.Attack
	oracle  oracle.Oracle
	rc      *resource.Controller
	metrics MetricsCollector
	logger  *Logger
	seed    *int64
}

// NewGenerator creates a Generator from an oracle and an attack.
// Most users should prefer the fluent builder, advgo.HopSkipJump(model);
// this constructor exists for custom attack.Attack implementations.
func NewGenerator(o oracle.Oracle, atk attack.Attack, optFns ...Option) (*Generator, error) {
	if o == nil {
		return nil, attack.ErrNilOracle
	}
	if atk == nil {
		return nil, ErrNilAttack
	}

	opts := applyOptions(optFns)
	if opts.metricsCollector == nil {
		opts.metricsCollector = NoopMetricsCollector{}
	}
	if opts.logger == nil {
		opts.logger = NoopLogger()
	}

	rc := opts.controller
	if rc == nil {
		rc = resource.NewController(resource.Config{
			MaxWorkers:      opts.workers,
			QueryRatePerSec: opts.queryRate,
		})
	}

	return &Generator{
		attack:  atk,
		oracle:  decorateOracle(o, rc, opts),
		rc:      rc,
		metrics: opts.metricsCollector,
		logger:  opts.logger.WithAttack(atk.Name()),
		seed:    opts.seed,
	}, nil
}

// decorateOracle layers the configured adapters around the user's
// oracle. The cache sits outermost so hits skip the rate limiter.
func decorateOracle(o oracle.Oracle, rc *resource.Controller, opts options) oracle.Oracle {
	o = oracle.NewRateLimited(o, rc)
	if opts.chunkSize > 0 {
		o = oracle.NewChunked(o, opts.chunkSize)
	}
	if opts.cacheSize > 0 {
		o = oracle.NewCached(o, opts.cacheSize)
	}
	return o
}

// Oracle returns the decorated oracle the generator queries. Attacks
// run through the same adapters, so external probes of this oracle see
// the generator's caching and rate limiting.
func (g *Generator) Oracle() oracle.Oracle {
	return g.oracle
}

// pendingRun is one admissible sample of a batch, ready to attack.
type pendingRun struct {
	index  int
	goal   attack.Goal
	charge int // extra queries to bill the sample, e.g. label resolution
}

// Generate attacks every sample of the batch. Original labels are
// resolved with a single oracle call up front; that query is charged to
// each sample's budget.
//
// The returned slice has one result per sample, in input order. Samples
// that fail individually (initialization failure, invariant violation,
// dimension mismatch) carry the error in their Result; the batch itself
// only errors when no attack could start at all.
func (g *Generator) Generate(ctx context.Context, samples [][]float64) ([]*attack.Result, error) {
	start := time.Now()
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	results, pending := g.screen(samples, nil, nil)

	if len(pending) > 0 {
		batch := make([][]float64, len(pending))
		for i, p := range pending {
			batch[i] = samples[p.index]
		}

		labels, err := g.resolveLabels(ctx, batch)
		if err != nil {
			return nil, err
		}

		for i := range pending {
			pending[i].goal.OriginalLabel = labels[i]
			pending[i].charge = 1
		}
	}

	g.runAll(ctx, samples, results, pending)
	g.finishBatch(ctx, start, results)

	return results, nil
}

// GenerateWithLabels attacks every sample of the batch using the
// supplied original labels, skipping label resolution entirely.
func (g *Generator) GenerateWithLabels(ctx context.Context, samples [][]float64, labels []int) ([]*attack.Result, error) {
	start := time.Now()
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	if len(labels) != len(samples) {
		return nil, &ErrLabelCountMismatch{Samples: len(samples), Labels: len(labels)}
	}

	results, pending := g.screen(samples, labels, nil)
	g.runAll(ctx, samples, results, pending)
	g.finishBatch(ctx, start, results)

	return results, nil
}

// GenerateTargeted attacks every sample toward its per-sample target
// label. The attack must have been built in targeted mode.
func (g *Generator) GenerateTargeted(ctx context.Context, samples [][]float64, labels, targets []int) ([]*attack.Result, error) {
	start := time.Now()
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	if len(labels) != len(samples) {
		return nil, &ErrLabelCountMismatch{Samples: len(samples), Labels: len(labels)}
	}
	if len(targets) != len(samples) {
		return nil, &ErrTargetCountMismatch{Samples: len(samples), Targets: len(targets)}
	}

	results, pending := g.screen(samples, labels, targets)
	g.runAll(ctx, samples, results, pending)
	g.finishBatch(ctx, start, results)

	return results, nil
}

// screen validates batch shape sample by sample. Misshapen samples get
// failed results immediately; the rest become pending runs with their
// goals and derived seeds.
func (g *Generator) screen(samples [][]float64, labels, targets []int) ([]*attack.Result, []pendingRun) {
	results := make([]*attack.Result, len(samples))

	dim := 0
	for _, s := range samples {
		if len(s) > 0 {
			dim = len(s)
			break
		}
	}

	pending := make([]pendingRun, 0, len(samples))

	for i, s := range samples {
		label := 0
		if labels != nil {
			label = labels[i]
		}

		if len(s) == 0 {
			results[i] = failedResult(i, s, label, attack.ErrEmptySample)
			continue
		}
		if len(s) != dim {
			results[i] = failedResult(i, s, label, &attack.ErrDimensionMismatch{Expected: dim, Actual: len(s)})
			continue
		}

		goal := attack.Goal{OriginalLabel: label}
		if targets != nil {
			t := targets[i]
			goal.Target = &t
		}
		if g.seed != nil {
			seed := *g.seed + int64(i)
			goal.Seed = &seed
		}

		pending = append(pending, pendingRun{index: i, goal: goal})
	}

	return results, pending
}

// resolveLabels asks the oracle for the original labels of a batch.
func (g *Generator) resolveLabels(ctx context.Context, batch [][]float64) ([]int, error) {
	start := time.Now()

	labels, err := g.oracle.Predict(ctx, batch)
	if err == nil && len(labels) != len(batch) {
		err = &oracle.ErrLabelCount{Want: len(batch), Got: len(labels)}
	}
	err = translateError(err)

	g.metrics.RecordLabelResolution(len(batch), time.Since(start), err)
	g.logger.LogLabelResolution(ctx, len(batch), err)

	return labels, err
}

// runAll attacks the pending samples with bounded concurrency. Each
// worker owns one result slot, so no synchronization of the results
// slice is needed beyond the WaitGroup.
func (g *Generator) runAll(ctx context.Context, samples [][]float64, results []*attack.Result, pending []pendingRun) {
	var wg sync.WaitGroup

	for _, p := range pending {
		if err := g.rc.AcquireWorker(ctx); err != nil {
			results[p.index] = failedResult(p.index, samples[p.index], p.goal.OriginalLabel, err)
			continue
		}

		wg.Add(1)
		go func(p pendingRun) {
			defer wg.Done()
			defer g.rc.ReleaseWorker()

			results[p.index] = g.runOne(ctx, samples[p.index], p)
		}(p)
	}

	wg.Wait()
}

// runOne attacks a single sample and instruments the outcome.
func (g *Generator) runOne(ctx context.Context, sample []float64, p pendingRun) *attack.Result {
	start := time.Now()

	res, err := g.attack.Run(ctx, g.oracle, sample, p.goal)
	if res == nil {
		res = failedResult(p.index, sample, p.goal.OriginalLabel, err)
	}
	res.Index = p.index
	res.Queries += p.charge

	duration := time.Since(start)
	g.metrics.RecordSample(res.Status, res.Success, res.Queries, duration, res.Err)
	g.logger.LogSample(ctx, p.index, res.Status, res.Distance, res.Queries, res.Err)

	return res
}

// finishBatch records batch-level metrics once all slots are filled.
func (g *Generator) finishBatch(ctx context.Context, start time.Time, results []*attack.Result) {
	failed := 0
	queries := 0
	for _, res := range results {
		if !res.Success {
			failed++
		}
		queries += res.Queries
	}

	g.metrics.RecordGenerate(len(results), failed, time.Since(start))
	g.logger.LogGenerate(ctx, len(results), failed, queries)
}

func failedResult(index int, sample []float64, label int, err error) *attack.Result {
	return &attack.Result{
		Index:         index,
		Input:         sample,
		Candidate:     floats.Clone(sample),
		OriginalLabel: label,
		FinalLabel:    label,
		Status:        attack.StatusFailed,
		Err:           err,
	}
}

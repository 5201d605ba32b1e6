package advgo

import (
	"context"
	"iter"
	"time"

	"github.com/hupe1980/advgo/attack"
)

// Attack creates a fluent run builder for a single sample.
//
// Example:
//
//	res, err := g.Attack(sample).
//	    Label(3).
//	    Seed(42).
//	    Execute(ctx)
//
// Without Label, the original label is resolved with one oracle query,
// charged to the sample's budget.
func (g *Generator) Attack(sample []float64) *RunBuilder {
	return &RunBuilder{
		g:      g,
		sample: sample,
	}
}

// RunBuilder is a fluent builder for attacking a single sample.
type RunBuilder struct {
	g      *Generator
	sample []float64
	label  *int
	target *int
	seed   *int64
}

// Label supplies the sample's original label, skipping resolution.
func (rb *RunBuilder) Label(label int) *RunBuilder {
	rb.label = &label
	return rb
}

// Target sets the label the attack should reach. The generator's attack
// must have been built in targeted mode.
func (rb *RunBuilder) Target(target int) *RunBuilder {
	rb.target = &target
	return rb
}

// Seed makes this run reproducible, overriding the generator seed.
func (rb *RunBuilder) Seed(seed int64) *RunBuilder {
	rb.seed = &seed
	return rb
}

// Execute runs the attack and returns the sample's result.
func (rb *RunBuilder) Execute(ctx context.Context) (*attack.Result, error) {
	g := rb.g

	if err := g.rc.AcquireWorker(ctx); err != nil {
		return nil, err
	}
	defer g.rc.ReleaseWorker()

	p := pendingRun{
		goal: attack.Goal{Target: rb.target, Seed: rb.seed},
	}
	if rb.seed == nil {
		p.goal.Seed = g.seed
	}

	if rb.label != nil {
		p.goal.OriginalLabel = *rb.label
	} else {
		labels, err := g.resolveLabels(ctx, [][]float64{rb.sample})
		if err != nil {
			return nil, err
		}
		p.goal.OriginalLabel = labels[0]
		p.charge = 1
	}

	res := g.runOne(ctx, rb.sample, p)

	return res, res.Err
}

// MustExecute runs the attack, panicking on error.
// Use this only in tests or when you're certain the inputs are valid.
func (rb *RunBuilder) MustExecute(ctx context.Context) *attack.Result {
	res, err := rb.Execute(ctx)
	if err != nil {
		panic(err)
	}
	return res
}

// GenerateOne attacks a single sample, resolving its label first.
func (g *Generator) GenerateOne(ctx context.Context, sample []float64) (*attack.Result, error) {
	return g.Attack(sample).Execute(ctx)
}

// Stream attacks the batch sequentially and yields each result as it
// completes. Results arrive in input order. The iterator supports early
// termination - stop iterating to skip the remaining samples.
//
// This is more memory-friendly than Generate for large batches and lets
// callers react to results as they come in.
//
// Example:
//
//	for res, err := range g.Stream(ctx, samples) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if res.Success {
//	        save(res)
//	    }
//	}
func (g *Generator) Stream(ctx context.Context, samples [][]float64) iter.Seq2[*attack.Result, error] {
	return func(yield func(*attack.Result, error) bool) {
		start := time.Now()
		if len(samples) == 0 {
			yield(nil, ErrNoSamples)
			return
		}

		results, pending := g.screen(samples, nil, nil)

		if len(pending) > 0 {
			batch := make([][]float64, len(pending))
			for i, p := range pending {
				batch[i] = samples[p.index]
			}

			labels, err := g.resolveLabels(ctx, batch)
			if err != nil {
				yield(nil, err)
				return
			}

			for i := range pending {
				pending[i].goal.OriginalLabel = labels[i]
				pending[i].charge = 1
			}
		}

		// Merge screened failures and fresh runs back into input order.
		next := 0
		for i := range samples {
			if results[i] == nil {
				p := pending[next]
				next++
				if err := g.rc.AcquireWorker(ctx); err != nil {
					results[i] = failedResult(i, samples[i], p.goal.OriginalLabel, err)
				} else {
					results[i] = g.runOne(ctx, samples[i], p)
					g.rc.ReleaseWorker()
				}
			}

			if !yield(results[i], nil) {
				return
			}
		}

		g.finishBatch(ctx, start, results)
	}
}
